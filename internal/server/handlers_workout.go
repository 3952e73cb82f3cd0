package server

import (
	"net/http"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/progress"
)

type startWorkoutRequest struct {
	PlanID string `json:"planId"`
}

type loadWorkoutRequest struct {
	SessionID string `json:"sessionId"`
}

type workoutState struct {
	Session         models.WorkoutSession `json:"session"`
	CurrentExercise models.Exercise       `json:"currentExercise"`
	ExerciseIndex   int                   `json:"exerciseIndex"`
	ExerciseCount   int                   `json:"exerciseCount"`
}

func (s *Server) workoutStateResponse(w http.ResponseWriter, uid string) {
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	session, err := engine.Session()
	if err != nil {
		writeStorageError(w, err)
		return
	}
	exercise, index, err := engine.CurrentExercise()
	if err != nil {
		writeStorageError(w, err)
		return
	}
	plan := engine.Plan()
	writeJSON(w, http.StatusOK, workoutState{
		Session:         session,
		CurrentExercise: exercise,
		ExerciseIndex:   index,
		ExerciseCount:   len(plan.Exercises),
	})
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	var req startWorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := s.db.GetPlan(r.Context(), req.PlanID, uid)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	engine := s.workouts.Create(uid, plan)
	if _, err := engine.Start(r.Context()); err != nil {
		s.workouts.Remove(uid)
		writeStorageError(w, err)
		return
	}
	s.workoutStateResponse(w, uid)
}

// handleLoadWorkout rehydrates an interrupted session so the user can
// resume where they left off.
func (s *Server) handleLoadWorkout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	var req loadWorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.db.GetSession(r.Context(), req.SessionID, uid)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	plan, err := s.db.GetPlan(r.Context(), session.PlanID, uid)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	engine := s.workouts.Create(uid, plan)
	if _, err := engine.Load(r.Context(), req.SessionID); err != nil {
		s.workouts.Remove(uid)
		writeStorageError(w, err)
		return
	}
	s.workoutStateResponse(w, uid)
}

func (s *Server) handleCurrentWorkout(w http.ResponseWriter, r *http.Request) {
	s.workoutStateResponse(w, userID(r))
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	var set models.CompletedSet
	if !decodeJSON(w, r, &set) {
		return
	}
	if err := engine.CompleteSet(set); err != nil {
		writeStorageError(w, err)
		return
	}
	s.workoutStateResponse(w, uid)
}

func (s *Server) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	var ce models.CompletedExercise
	if !decodeJSON(w, r, &ce) {
		return
	}
	if err := engine.CompleteExercise(ce); err != nil {
		writeStorageError(w, err)
		return
	}
	s.workoutStateResponse(w, uid)
}

func (s *Server) handleSkipExercise(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	var ce models.CompletedExercise
	if !decodeJSON(w, r, &ce) {
		return
	}
	if err := engine.SkipExercise(ce); err != nil {
		writeStorageError(w, err)
		return
	}
	s.workoutStateResponse(w, uid)
}

func (s *Server) handleNextExercise(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	moved := engine.NextExercise()
	if !moved {
		writeJSON(w, http.StatusOK, map[string]bool{"moved": false, "lastExercise": true})
		return
	}
	s.workoutStateResponse(w, uid)
}

func (s *Server) handlePreviousExercise(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	engine.PreviousExercise()
	s.workoutStateResponse(w, uid)
}

func (s *Server) handlePauseWorkout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	if err := engine.Pause(r.Context()); err != nil {
		writeStorageError(w, err)
		return
	}
	s.workoutStateResponse(w, uid)
}

func (s *Server) handleResumeWorkout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}
	if err := engine.Resume(r.Context()); err != nil {
		writeStorageError(w, err)
		return
	}
	s.workoutStateResponse(w, uid)
}

type completeWorkoutResponse struct {
	Session    models.WorkoutSession `json:"session"`
	NewRecords []progress.NewRecord  `json:"newRecords"`
}

// handleCompleteWorkout finalizes the session, reports any new personal
// records against prior history, and writes the achieved reps and weights
// back into the plan for next time.
func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	engine, ok := s.workouts.Engine(uid)
	if !ok {
		writeError(w, http.StatusConflict, "no active workout session")
		return
	}

	history, histErr := s.db.QuerySessions(r.Context(), uid, models.StatusCompleted, 0)
	if histErr != nil {
		s.log.Warn("failed to load history for record detection", "user", uid, "error", histErr)
	}

	finalized, err := engine.Complete(r.Context())
	if err != nil {
		// The engine queued the finalized session offline; the workout
		// itself is done, so still tear down the engine.
		s.workouts.Remove(uid)
		writeStorageError(w, err)
		return
	}
	s.workouts.Remove(uid)

	var newRecords []progress.NewRecord
	if histErr == nil {
		existing := progress.CalculatePersonalRecords(history)
		newRecords = progress.DetectNewPersonalRecords(finalized, existing)
	}

	plan := engine.Plan()
	updated := progress.UpdatedExercisesFromSession(plan, finalized)
	if updated != nil {
		plan.Exercises = updated
		if err := s.db.UpdatePlan(r.Context(), plan); err != nil {
			s.log.Warn("failed to write performance back to plan", "plan", plan.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, completeWorkoutResponse{
		Session:    finalized,
		NewRecords: newRecords,
	})
}
