// Package cache keeps the most recently computed aggregate per period key.
//
// Freshness is a pure function of wall-clock time: an entry is served only
// while younger than the freshness window, after which any lookup
// recomputes. Two concurrent lookups of the same stale key may both
// recompute; the duplicate work is harmless because every computation is a
// complete, independently valid value.
package cache

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// DefaultFreshness is how long a computed aggregate is served before it
// must be recomputed.
const DefaultFreshness = time.Hour

// Entry pairs an aggregate with the instant it was computed.
type Entry struct {
	Aggregate  core.Aggregate
	ComputedAt time.Time
}

// ComputeFunc produces a fresh aggregate for a key on miss or staleness.
type ComputeFunc func(ctx context.Context) (core.Aggregate, error)

// Store is the engine-facing cache surface. Entries are replaced whole,
// never partially updated.
type Store interface {
	// GetOrCompute returns the cached entry when fresh, otherwise invokes
	// fn, stores the result and returns it. The boolean reports whether
	// the entry came from cache.
	GetOrCompute(ctx context.Context, key core.PeriodKey, fn ComputeFunc) (Entry, bool, error)

	// Refresh bypasses the freshness check: it always invokes fn and
	// replaces the entry.
	Refresh(ctx context.Context, key core.PeriodKey, fn ComputeFunc) (Entry, error)

	// Invalidate removes one entry.
	Invalidate(key core.PeriodKey)

	// InvalidateSubject removes every entry belonging to a subject. A
	// single new transaction can touch several periods (its month and the
	// containing year), so the reconciler drops them all at once.
	InvalidateSubject(subjectID string)
}
