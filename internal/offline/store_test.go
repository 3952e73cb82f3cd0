package offline

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id string) models.WorkoutSession {
	return models.WorkoutSession{
		ID:                 id,
		UserID:             "user-1",
		PlanID:             "plan-1",
		PlanName:           "Push Day",
		StartTime:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		CompletedExercises: []models.CompletedExercise{},
		Status:             models.StatusActive,
	}
}

func TestActiveSessionRoundTrip(t *testing.T) {
	s := testStore(t)

	if snap := s.ActiveSession("user-1"); snap != nil {
		t.Errorf("expected nil before save, got %+v", snap)
	}

	session := testSession("sess-1")
	if err := s.SaveActiveSession("user-1", session); err != nil {
		t.Fatal(err)
	}

	snap := s.ActiveSession("user-1")
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.Session.ID != "sess-1" || snap.Session.PlanName != "Push Day" {
		t.Errorf("snapshot = %+v", snap.Session)
	}
	if snap.SavedAt.IsZero() {
		t.Error("SavedAt not stamped")
	}

	// Users do not see each other's snapshots.
	if s.ActiveSession("user-2") != nil {
		t.Error("snapshot leaked across users")
	}

	if err := s.ClearActiveSession("user-1"); err != nil {
		t.Fatal(err)
	}
	if s.ActiveSession("user-1") != nil {
		t.Error("snapshot should be gone after clear")
	}
}

func TestPendingSessionsQueue(t *testing.T) {
	s := testStore(t)

	if got := s.PendingSessions("user-1"); len(got) != 0 {
		t.Errorf("expected empty queue, got %v", got)
	}

	if err := s.AddPendingSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddPendingSession("user-1", testSession("sess-2")); err != nil {
		t.Fatal(err)
	}

	pending := s.PendingSessions("user-1")
	if len(pending) != 2 {
		t.Fatalf("len = %d, want 2", len(pending))
	}
	if pending[0].Session.ID != "sess-1" {
		t.Error("queue should be oldest first")
	}
	if pending[0].SyncAttempts != 0 || pending[0].PendingSince.IsZero() {
		t.Errorf("entry = %+v", pending[0])
	}

	if err := s.RemovePendingSession("user-1", "sess-1"); err != nil {
		t.Fatal(err)
	}
	pending = s.PendingSessions("user-1")
	if len(pending) != 1 || pending[0].Session.ID != "sess-2" {
		t.Errorf("after remove: %+v", pending)
	}
}

func TestIncrementSyncAttempt(t *testing.T) {
	s := testStore(t)
	if err := s.AddPendingSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementSyncAttempt("user-1", "sess-1")
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("attempt = %d, want %d", got, want)
		}
	}

	pending := s.PendingSessions("user-1")
	if pending[0].SyncAttempts != 3 {
		t.Errorf("persisted attempts = %d", pending[0].SyncAttempts)
	}
	if pending[0].LastAttempt == nil {
		t.Error("LastAttempt not stamped")
	}
}

func TestSyncQueueRoundTrip(t *testing.T) {
	s := testStore(t)

	if err := s.Enqueue("user-1", OpWorkoutSession, testSession("sess-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Enqueue("user-1", "preference_update", map[string]string{"theme": "light"}); err != nil {
		t.Fatal(err)
	}

	queue := s.SyncQueue("user-1")
	if len(queue) != 2 {
		t.Fatalf("len = %d, want 2", len(queue))
	}
	if queue[0].Type != OpWorkoutSession || queue[0].Attempts != 0 {
		t.Errorf("op = %+v", queue[0])
	}
	if queue[0].ID == queue[1].ID {
		t.Error("operation IDs should be unique")
	}

	if got, err := s.IncrementQueueAttempt("user-1", queue[0].ID); err != nil || got != 1 {
		t.Errorf("IncrementQueueAttempt = %d, %v", got, err)
	}

	if err := s.RemoveFromSyncQueue("user-1", queue[0].ID); err != nil {
		t.Fatal(err)
	}
	if got := s.SyncQueue("user-1"); len(got) != 1 || got[0].Type != "preference_update" {
		t.Errorf("after remove: %+v", got)
	}
}

func TestCorruptEntryReadsAsEmpty(t *testing.T) {
	s := testStore(t)

	if _, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)`,
		userKey(keyPendingSessions, "user-1"), "{not json"); err != nil {
		t.Fatal(err)
	}

	if got := s.PendingSessions("user-1"); len(got) != 0 {
		t.Errorf("corrupt entry should read as empty, got %v", got)
	}

	// And the store stays usable for writes afterwards.
	if err := s.AddPendingSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}
	if got := s.PendingSessions("user-1"); len(got) != 1 {
		t.Errorf("after recovery write: %v", got)
	}
}

func TestPlanCacheExpiry(t *testing.T) {
	s := testStore(t)
	plans := []models.WorkoutPlan{{ID: "plan-1", UserID: "user-1", Name: "Push Day"}}

	if err := s.CachePlans("user-1", plans); err != nil {
		t.Fatal(err)
	}
	if got := s.CachedPlans("user-1"); len(got) != 1 || got[0].ID != "plan-1" {
		t.Errorf("cached = %v", got)
	}

	// Backdate the cache beyond the freshness cutoff.
	stale := planCache{Plans: plans, CachedAt: time.Now().Add(-PlanCacheMaxAge - time.Minute)}
	if err := s.setJSON(userKey(keyCachedPlans, "user-1"), stale); err != nil {
		t.Fatal(err)
	}
	if got := s.CachedPlans("user-1"); got != nil {
		t.Errorf("stale cache should return nil, got %v", got)
	}
}

func TestStorageInfo(t *testing.T) {
	s := testStore(t)

	info := s.StorageInfo("user-1")
	if info != (Info{}) {
		t.Errorf("empty store info = %+v", info)
	}

	if err := s.SaveActiveSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddPendingSession("user-1", testSession("sess-2")); err != nil {
		t.Fatal(err)
	}
	if err := s.Enqueue("user-1", OpWorkoutSession, testSession("sess-3")); err != nil {
		t.Fatal(err)
	}
	if err := s.CachePlans("user-1", []models.WorkoutPlan{{ID: "p1"}, {ID: "p2"}}); err != nil {
		t.Fatal(err)
	}

	info = s.StorageInfo("user-1")
	want := Info{HasActiveSession: true, PendingCount: 1, SyncQueueCount: 1, CachedPlansCount: 2}
	if info != want {
		t.Errorf("info = %+v, want %+v", info, want)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddPendingSession("user-1", testSession("sess-1")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := Open(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if got := s2.PendingSessions("user-1"); len(got) != 1 || got[0].Session.ID != "sess-1" {
		t.Errorf("after reopen: %+v", got)
	}
}
