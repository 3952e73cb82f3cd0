package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a workout session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
)

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// CompletedSet is one logged repetition-set during a session.
type CompletedSet struct {
	SetNumber    int       `json:"setNumber"`
	Reps         int       `json:"reps"`
	Weight       *float64  `json:"weight,omitempty"`
	CompletedAt  time.Time `json:"completedAt"`
	RestDuration int       `json:"restDuration,omitempty"`
}

// CompletedExercise records how one plan exercise was executed in a session.
// ExerciseID is a back-reference to the plan exercise, Name a denormalized copy.
type CompletedExercise struct {
	ExerciseID    string         `json:"exerciseId"`
	Name          string         `json:"name"`
	CompletedSets []CompletedSet `json:"completedSets"`
	Skipped       bool           `json:"skipped"`
}

// SessionMetrics is the derived summary populated once at completion.
type SessionMetrics struct {
	TotalVolume             float64 `json:"totalVolume"`
	CompletionRate          int     `json:"completionRate"`
	TotalSetsCompleted      int     `json:"totalSetsCompleted"`
	TotalRepsCompleted      int     `json:"totalRepsCompleted"`
	CompletedExercisesCount int     `json:"completedExercisesCount"`
	SkippedExercisesCount   int     `json:"skippedExercisesCount"`
}

// WorkoutSession is one instance of performing a plan.
type WorkoutSession struct {
	ID                 string              `json:"id"`
	UserID             string              `json:"userId"`
	PlanID             string              `json:"planId"`
	PlanName           string              `json:"planName"`
	StartTime          time.Time           `json:"startTime"`
	EndTime            *time.Time          `json:"endTime,omitempty"`
	CompletedExercises []CompletedExercise `json:"completedExercises"`
	TotalDuration      *int                `json:"totalDuration,omitempty"` // minutes
	Status             SessionStatus       `json:"status"`
	Metrics            *SessionMetrics     `json:"metrics,omitempty"`
}

// NewWorkoutSession builds an active session for a plan with an empty
// completed-exercise list.
func NewWorkoutSession(userID, planID, planName string, s WorkoutSession) WorkoutSession {
	s.UserID = userID
	s.PlanID = planID
	s.PlanName = planName
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartTime.IsZero() {
		s.StartTime = time.Now().UTC()
	}
	if s.CompletedExercises == nil {
		s.CompletedExercises = []CompletedExercise{}
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	return s
}

// ValidateWorkoutSession rejects malformed sessions.
func ValidateWorkoutSession(s WorkoutSession) error {
	if strings.TrimSpace(s.UserID) == "" {
		return validationErrorf("userId", "user ID is required and must be a non-empty string")
	}
	if strings.TrimSpace(s.PlanID) == "" {
		return validationErrorf("planId", "plan ID is required and must be a non-empty string")
	}
	if strings.TrimSpace(s.PlanName) == "" {
		return validationErrorf("planName", "plan name is required and must be a non-empty string")
	}
	if s.StartTime.IsZero() {
		return validationErrorf("startTime", "start time must be a valid time")
	}
	if s.EndTime != nil {
		if s.EndTime.IsZero() {
			return validationErrorf("endTime", "end time must be a valid time")
		}
		if s.EndTime.Before(s.StartTime) {
			return validationErrorf("endTime", "end time cannot be before start time")
		}
	}
	if s.CompletedExercises == nil {
		return validationErrorf("completedExercises", "completed exercises must be an array")
	}
	if s.TotalDuration != nil && *s.TotalDuration < 0 {
		return validationErrorf("totalDuration", "total duration must be a non-negative number")
	}
	if !s.Status.Valid() {
		return validationErrorf("status", "status must be one of: active, completed, paused")
	}
	return nil
}

// UpsertCompletedExercise replaces the entry with the same exercise ID, or
// appends if absent. Insertion order is preserved, so out-of-order
// completion across a resumed session stays idempotent per exercise.
func (s *WorkoutSession) UpsertCompletedExercise(ce CompletedExercise) {
	for i := range s.CompletedExercises {
		if s.CompletedExercises[i].ExerciseID == ce.ExerciseID {
			s.CompletedExercises[i] = ce
			return
		}
	}
	s.CompletedExercises = append(s.CompletedExercises, ce)
}

// CompletedExercise returns the entry for the given exercise ID, or false.
func (s *WorkoutSession) CompletedExercise(exerciseID string) (CompletedExercise, bool) {
	for _, ce := range s.CompletedExercises {
		if ce.ExerciseID == exerciseID {
			return ce, true
		}
	}
	return CompletedExercise{}, false
}
