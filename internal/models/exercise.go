package models

import (
	"strings"

	"github.com/google/uuid"
)

// Default prescription values applied when a user leaves fields blank.
const (
	DefaultSets     = 3
	DefaultReps     = 10
	DefaultRestTime = 60 // seconds

	MaxExerciseNameLen = 50
	MaxPlanNameLen     = 30
)

// Exercise is one movement prescription within a workout plan.
type Exercise struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Sets         int      `json:"sets"`
	Reps         int      `json:"reps"`
	Weight       *float64 `json:"weight,omitempty"`
	RestTime     int      `json:"restTime"`
	Notes        string   `json:"notes,omitempty"`
	MuscleGroups []string `json:"muscleGroups"`
}

// NewExercise builds a fully-populated exercise from partial input,
// assigning an ID and filling default sets/reps/rest time.
func NewExercise(e Exercise) Exercise {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Sets == 0 {
		e.Sets = DefaultSets
	}
	if e.Reps == 0 {
		e.Reps = DefaultReps
	}
	if e.RestTime == 0 {
		e.RestTime = DefaultRestTime
	}
	if e.MuscleGroups == nil {
		e.MuscleGroups = []string{}
	}
	return e
}

// ValidateExercise rejects malformed exercises before they reach persistence.
func ValidateExercise(e Exercise) error {
	if strings.TrimSpace(e.Name) == "" {
		return validationErrorf("name", "exercise name is required and must be a non-empty string")
	}
	if len(e.Name) > MaxExerciseNameLen {
		return validationErrorf("name", "exercise name must be at most %d characters", MaxExerciseNameLen)
	}
	if e.Sets < 1 {
		return validationErrorf("sets", "sets must be a positive integer")
	}
	if e.Reps < 1 {
		return validationErrorf("reps", "reps must be a positive integer")
	}
	if e.Weight != nil && *e.Weight < 0 {
		return validationErrorf("weight", "weight must be a non-negative number")
	}
	if e.RestTime < 0 {
		return validationErrorf("restTime", "rest time must be a non-negative integer (seconds)")
	}
	for _, g := range e.MuscleGroups {
		if strings.TrimSpace(g) == "" {
			return validationErrorf("muscleGroups", "all muscle groups must be non-empty strings")
		}
	}
	return nil
}
