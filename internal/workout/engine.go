// Package workout drives one live workout session: the exercise cursor,
// set/exercise completion, pause/resume, periodic autosave, and final
// metrics. In-memory state is authoritative; persistence failures are
// queued for later sync and never clear logged sets.
package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// AutosaveInterval is the fixed period of the best-effort background save.
const AutosaveInterval = 30 * time.Second

var (
	// ErrNoActiveSession means no session has been started or loaded.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionCompleted means the session was already finalized.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrInvalidExercise means the cursor points outside the plan.
	ErrInvalidExercise = errors.New("invalid exercise index")
)

// SessionStore is the persistence collaborator for live sessions.
// Satisfied by *storage.DB.
type SessionStore interface {
	CreateSession(ctx context.Context, session models.WorkoutSession) error
	UpdateSession(ctx context.Context, session models.WorkoutSession) error
	GetSession(ctx context.Context, sessionID, userID string) (models.WorkoutSession, error)
}

// OfflineQueue captures writes that could not reach the store.
// Satisfied by *offline.Store.
type OfflineQueue interface {
	AddPendingSession(userID string, session models.WorkoutSession) error
	SaveActiveSession(userID string, session models.WorkoutSession) error
	ClearActiveSession(userID string) error
}

// Engine tracks one user's in-progress workout session.
type Engine struct {
	mu      sync.Mutex
	userID  string
	plan    models.WorkoutPlan
	session *models.WorkoutSession
	cursor  int

	store   SessionStore
	offline OfflineQueue
	log     *slog.Logger

	clock        func() time.Time
	saveInterval time.Duration
	stopAutosave chan struct{}
}

// NewEngine creates an engine for the given user and loaded plan.
func NewEngine(userID string, plan models.WorkoutPlan, store SessionStore, queue OfflineQueue, log *slog.Logger) *Engine {
	return &Engine{
		userID:       userID,
		plan:         plan,
		store:        store,
		offline:      queue,
		log:          log,
		clock:        time.Now,
		saveInterval: AutosaveInterval,
	}
}

// Start constructs a new active session with an empty completed-exercise
// list, persists it, positions the cursor at exercise 0, and begins
// autosaving. A persistence failure queues the session offline instead of
// blocking the workout.
func (e *Engine) Start(ctx context.Context) (models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.userID == "" {
		return models.WorkoutSession{}, fmt.Errorf("starting workout: user is required")
	}
	if len(e.plan.Exercises) == 0 {
		return models.WorkoutSession{}, fmt.Errorf("starting workout: plan with exercises is required")
	}

	session := models.NewWorkoutSession(e.userID, e.plan.ID, e.plan.Name, models.WorkoutSession{
		StartTime: e.clock().UTC(),
	})
	if err := models.ValidateWorkoutSession(session); err != nil {
		return models.WorkoutSession{}, err
	}

	if err := e.store.CreateSession(ctx, session); err != nil {
		e.log.Warn("failed to persist new session, queueing offline", "session", session.ID, "error", err)
		e.queueOffline(session)
	}

	e.session = &session
	e.cursor = 0
	e.startAutosaveLocked()

	return session, nil
}

// Load rehydrates an existing session (e.g. after an app restart) and
// repositions the cursor so the user resumes at the right exercise.
func (e *Engine) Load(ctx context.Context, sessionID string) (models.WorkoutSession, error) {
	session, err := e.store.GetSession(ctx, sessionID, e.userID)
	if err != nil {
		return models.WorkoutSession{}, fmt.Errorf("loading session: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	completedCount := 0
	for _, ce := range session.CompletedExercises {
		if !ce.Skipped {
			completedCount++
		}
	}

	e.session = &session
	e.cursor = min(completedCount, len(e.plan.Exercises)-1)
	if session.Status != models.StatusCompleted {
		e.startAutosaveLocked()
	}

	return session, nil
}

// CompleteSet appends a set to the current exercise's record, creating the
// record on the first set. Never removes data.
func (e *Engine) CompleteSet(set models.CompletedSet) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveSession
	}
	if e.session.Status == models.StatusCompleted {
		return ErrSessionCompleted
	}
	if e.cursor < 0 || e.cursor >= len(e.plan.Exercises) {
		return ErrInvalidExercise
	}

	current := e.plan.Exercises[e.cursor]
	if set.CompletedAt.IsZero() {
		set.CompletedAt = e.clock().UTC()
	}

	ce, ok := e.session.CompletedExercise(current.ID)
	if !ok {
		ce = models.CompletedExercise{
			ExerciseID:    current.ID,
			Name:          current.Name,
			CompletedSets: []models.CompletedSet{},
		}
	}
	if set.SetNumber == 0 {
		set.SetNumber = len(ce.CompletedSets) + 1
	}
	ce.CompletedSets = append(ce.CompletedSets, set)
	e.session.UpsertCompletedExercise(ce)

	return nil
}

// CompleteExercise finalizes the record for an exercise, replacing any
// partial entry for the same exercise ID.
func (e *Engine) CompleteExercise(ce models.CompletedExercise) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveSession
	}
	if e.session.Status == models.StatusCompleted {
		return ErrSessionCompleted
	}

	e.session.UpsertCompletedExercise(ce)
	return nil
}

// SkipExercise records the exercise as skipped.
func (e *Engine) SkipExercise(ce models.CompletedExercise) error {
	ce.Skipped = true
	if ce.CompletedSets == nil {
		ce.CompletedSets = []models.CompletedSet{}
	}
	return e.CompleteExercise(ce)
}

// NextExercise advances the cursor and reports whether movement occurred,
// so callers can detect the last exercise.
func (e *Engine) NextExercise() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursor < len(e.plan.Exercises)-1 {
		e.cursor++
		return true
	}
	return false
}

// PreviousExercise moves the cursor back one position, clamped at 0.
func (e *Engine) PreviousExercise() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursor > 0 {
		e.cursor--
		return true
	}
	return false
}

// CurrentExercise returns the exercise under the cursor.
func (e *Engine) CurrentExercise() (models.Exercise, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return models.Exercise{}, 0, ErrNoActiveSession
	}
	if e.cursor < 0 || e.cursor >= len(e.plan.Exercises) {
		return models.Exercise{}, 0, ErrInvalidExercise
	}
	return e.plan.Exercises[e.cursor], e.cursor, nil
}

// Pause persists the paused status, then commits it in memory. The error
// propagates so the caller can retry.
func (e *Engine) Pause(ctx context.Context) error {
	return e.setStatus(ctx, models.StatusPaused)
}

// Resume returns a paused session to active.
func (e *Engine) Resume(ctx context.Context) error {
	return e.setStatus(ctx, models.StatusActive)
}

func (e *Engine) setStatus(ctx context.Context, status models.SessionStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveSession
	}
	if e.session.Status == models.StatusCompleted {
		return ErrSessionCompleted
	}

	snapshot := *e.session
	snapshot.Status = status
	if err := e.store.UpdateSession(ctx, snapshot); err != nil {
		return fmt.Errorf("persisting status %s: %w", status, err)
	}

	e.session.Status = status
	return nil
}

// Complete computes final metrics, stamps end time and duration, and
// persists the finalized snapshot exactly once. A second call returns
// ErrSessionCompleted. When the synchronous write fails, the finalized
// session is queued offline and the error propagates so the UI can react;
// the sync reconciler delivers it later.
func (e *Engine) Complete(ctx context.Context) (models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return models.WorkoutSession{}, ErrNoActiveSession
	}
	if e.session.Status == models.StatusCompleted {
		return models.WorkoutSession{}, ErrSessionCompleted
	}

	endTime := e.clock().UTC()
	duration := int(math.Round(endTime.Sub(e.session.StartTime).Minutes()))
	metrics := computeMetrics(*e.session, len(e.plan.Exercises))

	e.session.EndTime = &endTime
	e.session.TotalDuration = &duration
	e.session.Status = models.StatusCompleted
	e.session.Metrics = &metrics
	e.stopAutosaveLocked()

	finalized := *e.session

	if err := e.store.UpdateSession(ctx, finalized); err != nil {
		e.log.Warn("failed to persist completed session, queueing offline", "session", finalized.ID, "error", err)
		e.queueOffline(finalized)
		return finalized, fmt.Errorf("persisting completed session: %w", err)
	}

	if e.offline != nil {
		if err := e.offline.ClearActiveSession(e.userID); err != nil {
			e.log.Warn("failed to clear offline snapshot", "error", err)
		}
	}

	return finalized, nil
}

// Plan returns a copy of the plan the engine was built for.
func (e *Engine) Plan() models.WorkoutPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan
}

// Session returns a copy of the current session state.
func (e *Engine) Session() (models.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return models.WorkoutSession{}, ErrNoActiveSession
	}
	return *e.session, nil
}

// Close stops the autosave timer. It does not persist.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAutosaveLocked()
}

func (e *Engine) queueOffline(session models.WorkoutSession) {
	if e.offline == nil {
		return
	}
	if err := e.offline.AddPendingSession(e.userID, session); err != nil {
		e.log.Error("failed to queue session offline", "session", session.ID, "error", err)
	}
}

// computeMetrics derives the completion summary. Skipped exercises
// contribute nothing to volume, set, or rep totals.
func computeMetrics(session models.WorkoutSession, totalPlanExercises int) models.SessionMetrics {
	var m models.SessionMetrics

	for _, ce := range session.CompletedExercises {
		if ce.Skipped {
			m.SkippedExercisesCount++
			continue
		}
		m.CompletedExercisesCount++
		m.TotalSetsCompleted += len(ce.CompletedSets)
		for _, set := range ce.CompletedSets {
			weight := 0.0
			if set.Weight != nil {
				weight = *set.Weight
			}
			m.TotalVolume += weight * float64(set.Reps)
			m.TotalRepsCompleted += set.Reps
		}
	}

	if totalPlanExercises > 0 {
		m.CompletionRate = int(math.Round(float64(m.CompletedExercisesCount) / float64(totalPlanExercises) * 100))
	}

	return m
}
