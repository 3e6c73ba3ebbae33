// Package worker drives reconciliation from queued sync requests.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/reconcile"
)

// Syncer is what a worker needs from the reconciler.
type Syncer interface {
	Sync(ctx context.Context, subjectID, authToken string) (reconcile.Result, error)
}

// SyncWorker handles sync request messages by running the reconciler for
// the requested subject.
type SyncWorker struct {
	syncer Syncer
}

func NewSyncWorker(syncer Syncer) *SyncWorker {
	return &SyncWorker{syncer: syncer}
}

// HandleSyncRequest processes a single queued sync request. Per-record
// failures are already absorbed into the result counts; only a whole-batch
// failure propagates so the message is requeued.
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	if msg.SubjectID == "" {
		return fmt.Errorf("sync request without subject id")
	}

	res, err := w.syncer.Sync(ctx, msg.SubjectID, msg.AuthToken)
	if err != nil {
		return fmt.Errorf("sync subject %s: %w", msg.SubjectID, err)
	}

	slog.InfoContext(ctx, "Queued sync completed",
		"subject_id", msg.SubjectID,
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"errors", res.Errors)
	return nil
}
