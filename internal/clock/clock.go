// Package clock abstracts the wall clock so "current period" logic can be
// pinned down in tests instead of drifting with real time.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// System returns a clock backed by time.Now.
func System() Clock {
	return Func(time.Now)
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}
