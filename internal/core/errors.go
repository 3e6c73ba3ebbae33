package core

import "errors"

// ErrNotFound reports a record that does not exist in the local store.
// The storage layer maps driver-level "no rows" conditions onto it so the
// reconciler can branch without knowing the backend.
var ErrNotFound = errors.New("record not found")
