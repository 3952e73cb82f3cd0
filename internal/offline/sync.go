package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/meltforce/gymtrack/internal/models"
)

// OpWorkoutSession is the generic-queue operation type for session saves.
const OpWorkoutSession = "workout_session"

// Attempt count at which a retained entry is flagged for manual attention.
const maxSyncAttempts = 5

// SessionSaver is the persistence collaborator the reconciler replays
// against. Satisfied by *storage.DB.
type SessionSaver interface {
	SaveSession(ctx context.Context, session models.WorkoutSession) error
}

// SyncResult summarizes one full sync pass.
type SyncResult struct {
	Synced    int      `json:"synced"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failedIds,omitempty"`
}

// Reconciler replays queued offline writes once connectivity returns.
// It assumes a single sync per user in flight at a time; callers serialize.
type Reconciler struct {
	store *Store
	saver SessionSaver
	log   *slog.Logger
}

// NewReconciler wires the reconciler to the local store and the backend.
func NewReconciler(store *Store, saver SessionSaver, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, saver: saver, log: log}
}

// PerformFullSync sequentially replays pending session writes, then queued
// generic operations. An entry leaves its queue only after its write
// succeeds; failures increment attempt counters and retain the entry.
// Calling with empty queues is a no-op.
func (r *Reconciler) PerformFullSync(ctx context.Context, userID string) SyncResult {
	var result SyncResult

	for _, pending := range r.store.PendingSessions(userID) {
		if err := r.saver.SaveSession(ctx, pending.Session); err != nil {
			attempts, incErr := r.store.IncrementSyncAttempt(userID, pending.Session.ID)
			if incErr != nil {
				r.log.Error("failed to record sync attempt", "session", pending.Session.ID, "error", incErr)
			}
			if attempts >= maxSyncAttempts {
				r.log.Warn("session has failed repeated sync attempts, manual intervention may be needed",
					"session", pending.Session.ID, "attempts", attempts)
			}
			r.log.Error("failed to sync pending session", "session", pending.Session.ID, "error", err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, pending.Session.ID)
			continue
		}

		if err := r.store.RemovePendingSession(userID, pending.Session.ID); err != nil {
			r.log.Error("failed to remove synced session from queue", "session", pending.Session.ID, "error", err)
		}
		result.Synced++
		r.log.Info("synced pending session", "session", pending.Session.ID)
	}

	for _, op := range r.store.SyncQueue(userID) {
		if err := r.applyOperation(ctx, op); err != nil {
			attempts, incErr := r.store.IncrementQueueAttempt(userID, op.ID)
			if incErr != nil {
				r.log.Error("failed to record queue attempt", "operation", op.ID, "error", incErr)
			}
			if attempts >= maxSyncAttempts {
				r.log.Warn("operation has failed repeated sync attempts, manual intervention may be needed",
					"operation", op.ID, "attempts", attempts)
			}
			r.log.Error("failed to replay queued operation", "operation", op.ID, "type", op.Type, "error", err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, op.ID)
			continue
		}

		if err := r.store.RemoveFromSyncQueue(userID, op.ID); err != nil {
			r.log.Error("failed to remove replayed operation", "operation", op.ID, "error", err)
		}
		result.Synced++
	}

	return result
}

func (r *Reconciler) applyOperation(ctx context.Context, op QueuedOperation) error {
	switch op.Type {
	case OpWorkoutSession:
		var session models.WorkoutSession
		if err := json.Unmarshal(op.Data, &session); err != nil {
			return fmt.Errorf("decoding queued session: %w", err)
		}
		return r.saver.SaveSession(ctx, session)
	default:
		// Unknown types are dropped with a warning rather than wedging the queue.
		r.log.Warn("unknown queued operation type", "type", op.Type, "operation", op.ID)
		return nil
	}
}
