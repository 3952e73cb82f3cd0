package offline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/meltforce/gymtrack/internal/models"
)

type fakeSaver struct {
	mu    sync.Mutex
	fail  bool
	saved []string
}

func (f *fakeSaver) SaveSession(ctx context.Context, s models.WorkoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("backend unreachable")
	}
	f.saved = append(f.saved, s.ID)
	return nil
}

func newTestReconciler(t *testing.T, saver *fakeSaver) (*Reconciler, *Store) {
	t.Helper()
	store := testStore(t)
	r := NewReconciler(store, saver, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return r, store
}

func TestPerformFullSyncEmptyQueues(t *testing.T) {
	saver := &fakeSaver{}
	r, _ := newTestReconciler(t, saver)

	result := r.PerformFullSync(context.Background(), "user-1")
	if result.Synced != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want zeroes", result)
	}
	if len(saver.saved) != 0 {
		t.Errorf("no saves expected, got %v", saver.saved)
	}
}

func TestPerformFullSyncDrainsBothQueues(t *testing.T) {
	saver := &fakeSaver{}
	r, store := newTestReconciler(t, saver)

	if err := store.AddPendingSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}
	if err := store.AddPendingSession("user-1", testSession("sess-2")); err != nil {
		t.Fatal(err)
	}
	if err := store.Enqueue("user-1", OpWorkoutSession, testSession("sess-3")); err != nil {
		t.Fatal(err)
	}

	result := r.PerformFullSync(context.Background(), "user-1")

	if result.Synced != 3 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	// Pending sessions replay before the generic queue.
	if len(saver.saved) != 3 || saver.saved[0] != "sess-1" || saver.saved[2] != "sess-3" {
		t.Errorf("saved order = %v", saver.saved)
	}
	if got := store.PendingSessions("user-1"); len(got) != 0 {
		t.Errorf("pending not drained: %v", got)
	}
	if got := store.SyncQueue("user-1"); len(got) != 0 {
		t.Errorf("queue not drained: %v", got)
	}
}

func TestPerformFullSyncRetainsFailures(t *testing.T) {
	saver := &fakeSaver{fail: true}
	r, store := newTestReconciler(t, saver)

	if err := store.AddPendingSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}

	result := r.PerformFullSync(context.Background(), "user-1")
	if result.Synced != 0 || result.Failed != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.FailedIDs) != 1 || result.FailedIDs[0] != "sess-1" {
		t.Errorf("FailedIDs = %v", result.FailedIDs)
	}

	pending := store.PendingSessions("user-1")
	if len(pending) != 1 {
		t.Fatal("failed entry must be retained")
	}
	if pending[0].SyncAttempts != 1 {
		t.Errorf("attempts = %d, want exactly 1 per pass", pending[0].SyncAttempts)
	}

	// A later successful pass clears it.
	saver.mu.Lock()
	saver.fail = false
	saver.mu.Unlock()

	result = r.PerformFullSync(context.Background(), "user-1")
	if result.Synced != 1 || result.Failed != 0 {
		t.Errorf("second pass = %+v", result)
	}
	if got := store.PendingSessions("user-1"); len(got) != 0 {
		t.Errorf("pending after recovery: %v", got)
	}
}

func TestPerformFullSyncRepeatedFailuresRetainEntry(t *testing.T) {
	saver := &fakeSaver{fail: true}
	r, store := newTestReconciler(t, saver)

	if err := store.AddPendingSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}

	// Entries are never dropped, even past the warn threshold.
	for range [maxSyncAttempts + 2]struct{}{} {
		r.PerformFullSync(context.Background(), "user-1")
	}

	pending := store.PendingSessions("user-1")
	if len(pending) != 1 {
		t.Fatal("entry should survive repeated failures")
	}
	if pending[0].SyncAttempts != maxSyncAttempts+2 {
		t.Errorf("attempts = %d, want %d", pending[0].SyncAttempts, maxSyncAttempts+2)
	}
}

func TestUnknownOperationTypeDropped(t *testing.T) {
	saver := &fakeSaver{}
	r, store := newTestReconciler(t, saver)

	if err := store.Enqueue("user-1", "legacy_op", map[string]string{"x": "y"}); err != nil {
		t.Fatal(err)
	}

	result := r.PerformFullSync(context.Background(), "user-1")
	// Unknown types count as handled so the queue cannot wedge.
	if result.Synced != 1 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if got := store.SyncQueue("user-1"); len(got) != 0 {
		t.Errorf("unknown op should be removed: %v", got)
	}
	if len(saver.saved) != 0 {
		t.Errorf("nothing should have been saved: %v", saver.saved)
	}
}
