// Package source defines the ports for the external source of record.
package source

import (
	"context"
	"errors"

	"bilancio/internal/core"
)

// ErrUnavailable reports that the external source could not be reached at
// all. Implementations wrap it so callers can distinguish a dead source
// from a bad record.
var ErrUnavailable = errors.New("external source unavailable")

// Client fetches a subject's data from the source of record.
type Client interface {
	FetchTransactions(ctx context.Context, subjectID, authToken string) ([]core.TransactionRecord, error)
	FetchProfile(ctx context.Context, subjectID, authToken string) (core.Profile, error)
}

// IsUnavailable reports whether err means the source was unreachable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
