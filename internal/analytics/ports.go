package analytics

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// Ports for the transaction store adapter, defined on the consumer side.
type (
	// TransactionReader is the query surface the aggregation paths need.
	TransactionReader interface {
		// Find returns a subject's records inside the inclusive
		// [from, to] window, filtered by status. An empty status means
		// no status filter.
		Find(ctx context.Context, subjectID string, from, to time.Time, status core.Status) ([]core.TransactionRecord, error)
	}

	// StoreAdapter extends the reader with the bookkeeping queries the
	// service layer exposes through the sync-status surface.
	StoreAdapter interface {
		TransactionReader

		CountBySubject(ctx context.Context, subjectID string) (int, error)

		// MostRecentSyncedAt returns the newest syncedAt stamp for a
		// subject, or the zero time when nothing was ever synced.
		MostRecentSyncedAt(ctx context.Context, subjectID string) (time.Time, error)

		// GetProfile returns core.ErrNotFound when no profile was synced.
		GetProfile(ctx context.Context, subjectID string) (core.Profile, error)
	}
)
