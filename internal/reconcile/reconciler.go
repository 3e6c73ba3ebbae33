// Package reconcile merges externally sourced transaction records into the
// local store copy and keeps the analytics cache coherent afterwards.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/clock"
	"bilancio/internal/core"
	"bilancio/internal/source"
)

// Result counts what one sync invocation did per record.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

type (
	// LocalStore is the write surface of the transaction store adapter.
	// Only the reconciler uses it.
	LocalStore interface {
		// GetByOriginalID returns core.ErrNotFound for unseen records.
		GetByOriginalID(ctx context.Context, originalID, subjectID string) (core.TransactionRecord, error)
		Insert(ctx context.Context, rec core.TransactionRecord) error
		Update(ctx context.Context, rec core.TransactionRecord) error
		SaveProfile(ctx context.Context, p core.Profile) error
	}

	// Invalidator drops a subject's cache entries after sync writes.
	// One-directional by design: the cache never calls back into sync.
	Invalidator interface {
		InvalidateSubject(subjectID string)
	}

	// Publisher emits a sync-completed event. Optional; a nil publisher
	// is tolerated and a publish failure never fails the sync.
	Publisher interface {
		PublishSyncCompleted(ctx context.Context, subjectID string, res Result) error
	}
)

// Reconciler applies the per-record create/update/skip state machine
// driven by lastModifiedAt comparison. It serializes record-by-record
// within one invocation; different subjects may reconcile concurrently.
type Reconciler struct {
	source source.Client
	store  LocalStore
	cache  Invalidator
	events Publisher
	clock  clock.Clock
}

func New(src source.Client, store LocalStore, cache Invalidator, events Publisher, clk clock.Clock) *Reconciler {
	if clk == nil {
		clk = clock.System()
	}
	return &Reconciler{source: src, store: store, cache: cache, events: events, clock: clk}
}

// Sync fetches a subject's profile and transactions from the external
// source and merges them into the local copy.
//
// A failure fetching the whole transaction batch is terminal for the
// invocation: no partial state is assumed to exist yet. A failure on a
// single record is counted and the batch continues. The profile sub-step
// degrades to a locally-defaulted profile instead of failing, so analytics
// stays available without complete identity data.
func (r *Reconciler) Sync(ctx context.Context, subjectID, authToken string) (Result, error) {
	slog.InfoContext(ctx, "Starting sync", "subject_id", subjectID)

	r.syncProfile(ctx, subjectID, authToken)

	records, err := r.source.FetchTransactions(ctx, subjectID, authToken)
	if err != nil {
		return Result{}, fmt.Errorf("fetch transactions for %s: %w", subjectID, err)
	}

	var res Result
	for _, rec := range records {
		action, err := r.apply(ctx, subjectID, rec)
		if err != nil {
			slog.ErrorContext(ctx, "Record sync failed",
				"subject_id", subjectID,
				"original_id", rec.OriginalID,
				"error", err)
			res.Errors++
			continue
		}
		switch action {
		case actionCreate:
			res.Created++
		case actionUpdate:
			res.Updated++
		case actionSkip:
			res.Skipped++
		}
	}

	// One invalidation per batch, not per record: a single transaction
	// already touches its month and the containing year.
	r.cache.InvalidateSubject(subjectID)

	if r.events != nil {
		if err := r.events.PublishSyncCompleted(ctx, subjectID, res); err != nil {
			slog.WarnContext(ctx, "Failed to publish sync-completed event",
				"subject_id", subjectID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Sync finished",
		"subject_id", subjectID,
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"errors", res.Errors)
	return res, nil
}

type action int

const (
	actionSkip action = iota
	actionCreate
	actionUpdate
)

func (r *Reconciler) apply(ctx context.Context, subjectID string, rec core.TransactionRecord) (action, error) {
	rec.SubjectID = subjectID
	if err := rec.Validate(); err != nil {
		return actionSkip, fmt.Errorf("validate record: %w", err)
	}

	local, err := r.store.GetByOriginalID(ctx, rec.OriginalID, subjectID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		rec.SyncedAt = r.clock.Now()
		if err := r.store.Insert(ctx, rec); err != nil {
			return actionSkip, fmt.Errorf("insert record: %w", err)
		}
		return actionCreate, nil
	case err != nil:
		return actionSkip, fmt.Errorf("lookup record: %w", err)
	}

	if rec.LastModifiedAt.After(local.LastModifiedAt) {
		rec.SyncedAt = r.clock.Now()
		if err := r.store.Update(ctx, rec); err != nil {
			return actionSkip, fmt.Errorf("update record: %w", err)
		}
		return actionUpdate, nil
	}
	return actionSkip, nil
}

// syncProfile fetches and stores the subject's profile. When the source
// cannot serve it, a default profile is written instead so downstream
// reads always find one.
func (r *Reconciler) syncProfile(ctx context.Context, subjectID, authToken string) {
	profile, err := r.source.FetchProfile(ctx, subjectID, authToken)
	if err != nil {
		slog.WarnContext(ctx, "Profile fetch failed, writing default profile",
			"subject_id", subjectID, "error", err)
		profile = core.DefaultProfile(subjectID, r.clock.Now())
	} else {
		profile.SubjectID = subjectID
		profile.SyncedAt = r.clock.Now()
	}

	if err := r.store.SaveProfile(ctx, profile); err != nil {
		slog.ErrorContext(ctx, "Failed to save profile",
			"subject_id", subjectID, "error", err)
	}
}
