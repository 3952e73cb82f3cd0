package workout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

// fakeStore records calls and can be told to fail.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]models.WorkoutSession
	fail     bool
	updates  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]models.WorkoutSession)}
}

func (f *fakeStore) CreateSession(ctx context.Context, s models.WorkoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) UpdateSession(ctx context.Context, s models.WorkoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.sessions[s.ID] = s
	f.updates++
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, sessionID, userID string) (models.WorkoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return models.WorkoutSession{}, fmt.Errorf("session %s not found", sessionID)
	}
	return s, nil
}

func (f *fakeStore) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

// fakeQueue records offline writes.
type fakeQueue struct {
	mu      sync.Mutex
	pending []models.WorkoutSession
	active  map[string]models.WorkoutSession
	cleared int
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{active: make(map[string]models.WorkoutSession)}
}

func (f *fakeQueue) AddPendingSession(userID string, s models.WorkoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, s)
	return nil
}

func (f *fakeQueue) SaveActiveSession(userID string, s models.WorkoutSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[userID] = s
	return nil
}

func (f *fakeQueue) ClearActiveSession(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, userID)
	f.cleared++
	return nil
}

func (f *fakeQueue) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func testPlan() models.WorkoutPlan {
	return models.WorkoutPlan{
		ID:     "plan-1",
		UserID: "user-1",
		Name:   "Full Body",
		Exercises: []models.Exercise{
			{ID: "a", Name: "Squat", Sets: 3, Reps: 10, Weight: ptr(50)},
			{ID: "b", Name: "Bench Press", Sets: 3, Reps: 10, Weight: ptr(50)},
			{ID: "c", Name: "Deadlift", Sets: 3, Reps: 10, Weight: ptr(100)},
		},
	}
}

func newTestEngine(t *testing.T, store SessionStore, queue OfflineQueue) *Engine {
	t.Helper()
	e := NewEngine("user-1", testPlan(), store, queue, testLogger())
	t.Cleanup(e.Close)
	return e
}

func TestStartCreatesActiveSession(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, newFakeQueue())

	session, err := e.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.Status != models.StatusActive {
		t.Errorf("status = %q", session.Status)
	}
	if len(session.CompletedExercises) != 0 {
		t.Errorf("expected empty completed exercises: %v", session.CompletedExercises)
	}
	if _, ok := store.sessions[session.ID]; !ok {
		t.Error("session was not persisted")
	}

	ex, idx, err := e.CurrentExercise()
	if err != nil || idx != 0 || ex.ID != "a" {
		t.Errorf("cursor = %v %d %v, want exercise a at 0", ex, idx, err)
	}
}

func TestStartQueuesOfflineOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.setFail(true)
	queue := newFakeQueue()
	e := newTestEngine(t, store, queue)

	if _, err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start should tolerate store failure: %v", err)
	}
	if queue.pendingCount() != 1 {
		t.Errorf("pending = %d, want 1", queue.pendingCount())
	}
}

func TestCompleteSetAppendsAndNumbers(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), newFakeQueue())
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := e.CompleteSet(models.CompletedSet{Reps: 10, Weight: ptr(50)}); err != nil {
		t.Fatal(err)
	}
	if err := e.CompleteSet(models.CompletedSet{Reps: 8, Weight: ptr(55)}); err != nil {
		t.Fatal(err)
	}

	session, _ := e.Session()
	ce, ok := session.CompletedExercise("a")
	if !ok || len(ce.CompletedSets) != 2 {
		t.Fatalf("sets = %+v", ce)
	}
	if ce.CompletedSets[0].SetNumber != 1 || ce.CompletedSets[1].SetNumber != 2 {
		t.Errorf("set numbers = %d, %d", ce.CompletedSets[0].SetNumber, ce.CompletedSets[1].SetNumber)
	}
	if ce.CompletedSets[0].CompletedAt.IsZero() {
		t.Error("CompletedAt should be stamped")
	}
}

func TestCompleteSetWithoutSession(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), newFakeQueue())
	if err := e.CompleteSet(models.CompletedSet{Reps: 10}); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestCursorNavigationClamped(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), newFakeQueue())
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if e.PreviousExercise() {
		t.Error("previous at index 0 should not move")
	}
	if !e.NextExercise() || !e.NextExercise() {
		t.Fatal("expected two forward moves")
	}
	if e.NextExercise() {
		t.Error("next at last exercise should not move")
	}

	_, idx, _ := e.CurrentExercise()
	if idx != 2 {
		t.Errorf("cursor = %d, want 2", idx)
	}
	if !e.PreviousExercise() {
		t.Error("previous from 2 should move")
	}
}

func TestPauseResume(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, newFakeQueue())
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.CompleteSet(models.CompletedSet{Reps: 10, Weight: ptr(50)}); err != nil {
		t.Fatal(err)
	}

	if err := e.Pause(context.Background()); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	session, _ := e.Session()
	if session.Status != models.StatusPaused {
		t.Errorf("status = %q", session.Status)
	}
	// Logged work survives the pause.
	if _, ok := session.CompletedExercise("a"); !ok {
		t.Error("completed exercises lost across pause")
	}

	if err := e.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	session, _ = e.Session()
	if session.Status != models.StatusActive {
		t.Errorf("status after resume = %q", session.Status)
	}
}

func TestPauseFailurePreservesStatus(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, newFakeQueue())
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	store.setFail(true)
	if err := e.Pause(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	session, _ := e.Session()
	if session.Status != models.StatusActive {
		t.Errorf("failed pause should leave status active, got %q", session.Status)
	}
}

func TestCompleteComputesMetrics(t *testing.T) {
	store := newFakeStore()
	queue := newFakeQueue()
	e := newTestEngine(t, store, queue)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e.clock = func() time.Time { return start }
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Two exercises fully performed at 50kg x 10 x 3, the third skipped.
	for _, id := range []string{"a", "b"} {
		sets := make([]models.CompletedSet, 3)
		for i := range sets {
			sets[i] = models.CompletedSet{SetNumber: i + 1, Reps: 10, Weight: ptr(50), CompletedAt: start}
		}
		if err := e.CompleteExercise(models.CompletedExercise{ExerciseID: id, Name: id, CompletedSets: sets}); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.SkipExercise(models.CompletedExercise{ExerciseID: "c", Name: "Deadlift"}); err != nil {
		t.Fatal(err)
	}

	e.clock = func() time.Time { return start.Add(45 * time.Minute) }
	finalized, err := e.Complete(context.Background())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if finalized.Status != models.StatusCompleted {
		t.Errorf("status = %q", finalized.Status)
	}
	if finalized.EndTime == nil || finalized.TotalDuration == nil || *finalized.TotalDuration != 45 {
		t.Errorf("end/duration = %v/%v", finalized.EndTime, finalized.TotalDuration)
	}

	m := finalized.Metrics
	if m == nil {
		t.Fatal("metrics not populated")
	}
	if m.TotalVolume != 3000 {
		t.Errorf("TotalVolume = %v, want 3000", m.TotalVolume)
	}
	if m.TotalSetsCompleted != 6 {
		t.Errorf("TotalSetsCompleted = %d, want 6", m.TotalSetsCompleted)
	}
	if m.TotalRepsCompleted != 60 {
		t.Errorf("TotalRepsCompleted = %d, want 60", m.TotalRepsCompleted)
	}
	if m.CompletedExercisesCount != 2 || m.SkippedExercisesCount != 1 {
		t.Errorf("completed/skipped = %d/%d", m.CompletedExercisesCount, m.SkippedExercisesCount)
	}
	// 2 of 3 plan exercises completed.
	if m.CompletionRate != 67 {
		t.Errorf("CompletionRate = %d, want 67", m.CompletionRate)
	}

	if queue.cleared == 0 {
		t.Error("offline snapshot should be cleared on successful completion")
	}
}

func TestCompleteTwiceRejected(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), newFakeQueue())
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Complete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Complete(context.Background()); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("err = %v, want ErrSessionCompleted", err)
	}
	if err := e.CompleteSet(models.CompletedSet{Reps: 5}); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("CompleteSet after completion: %v", err)
	}
}

func TestCompletePersistFailureQueuesOffline(t *testing.T) {
	store := newFakeStore()
	queue := newFakeQueue()
	e := newTestEngine(t, store, queue)
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	store.setFail(true)
	finalized, err := e.Complete(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if finalized.Status != models.StatusCompleted {
		t.Errorf("finalized status = %q", finalized.Status)
	}
	if queue.pendingCount() != 1 {
		t.Errorf("pending = %d, want 1", queue.pendingCount())
	}
}

func TestLoadRepositionsCursor(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, newFakeQueue())
	session, err := e.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.CompleteExercise(models.CompletedExercise{ExerciseID: "a", Name: "Squat",
		CompletedSets: []models.CompletedSet{{SetNumber: 1, Reps: 10, CompletedAt: time.Now()}}}); err != nil {
		t.Fatal(err)
	}
	if err := e.SkipExercise(models.CompletedExercise{ExerciseID: "b", Name: "Bench Press"}); err != nil {
		t.Fatal(err)
	}
	store.sessions[session.ID], _ = e.Session()

	// Fresh engine, same plan: the resume cursor skips only performed
	// exercises, so one completed exercise positions at index 1.
	e2 := newTestEngine(t, store, newFakeQueue())
	if _, err := e2.Load(context.Background(), session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, idx, err := e2.CurrentExercise()
	if err != nil || idx != 1 {
		t.Errorf("cursor = %d (%v), want 1", idx, err)
	}
}

func TestLoadCursorClampedToLastExercise(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, newFakeQueue())
	session, err := e.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := e.CompleteExercise(models.CompletedExercise{ExerciseID: id, Name: id,
			CompletedSets: []models.CompletedSet{{SetNumber: 1, Reps: 5, CompletedAt: time.Now()}}}); err != nil {
			t.Fatal(err)
		}
	}
	store.sessions[session.ID], _ = e.Session()

	e2 := newTestEngine(t, store, newFakeQueue())
	if _, err := e2.Load(context.Background(), session.ID); err != nil {
		t.Fatal(err)
	}
	_, idx, _ := e2.CurrentExercise()
	if idx != 2 {
		t.Errorf("cursor = %d, want clamp at 2", idx)
	}
}

func TestAutosavePersistsSnapshot(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, newFakeQueue())
	e.saveInterval = 10 * time.Millisecond

	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := store.updateCount()

	deadline := time.After(2 * time.Second)
	for store.updateCount() == before {
		select {
		case <-deadline:
			t.Fatal("autosave never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAutosaveFailureSavesOffline(t *testing.T) {
	store := newFakeStore()
	queue := newFakeQueue()
	e := newTestEngine(t, store, queue)
	e.saveInterval = 10 * time.Millisecond

	if _, err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	store.setFail(true)

	deadline := time.After(2 * time.Second)
	for {
		queue.mu.Lock()
		_, saved := queue.active["user-1"]
		queue.mu.Unlock()
		if saved {
			break
		}
		select {
		case <-deadline:
			t.Fatal("offline snapshot never saved")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(newFakeStore(), newFakeQueue(), testLogger())

	if _, ok := m.Engine("user-1"); ok {
		t.Error("unexpected engine before create")
	}

	e1 := m.Create("user-1", testPlan())
	got, ok := m.Engine("user-1")
	if !ok || got != e1 {
		t.Error("Engine should return the created engine")
	}

	// Replacement closes the old engine and installs a new one.
	e2 := m.Create("user-1", testPlan())
	if e2 == e1 {
		t.Error("Create should build a fresh engine")
	}

	m.Remove("user-1")
	if _, ok := m.Engine("user-1"); ok {
		t.Error("engine should be gone after Remove")
	}
}
