package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkoutPlan is a named, ordered collection of exercises owned by one user.
type WorkoutPlan struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Exercises   []Exercise `json:"exercises"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	IsActive    bool       `json:"isActive"`
}

// NewWorkoutPlan builds a plan from partial input, assigning an ID and
// timestamps. New plans are active unless stated otherwise.
func NewWorkoutPlan(userID string, p WorkoutPlan) WorkoutPlan {
	now := time.Now().UTC()
	p.UserID = userID
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	p.IsActive = true
	return p
}

// ValidateWorkoutPlan checks the plan and every contained exercise.
// Errors for a contained exercise name the failing index.
func ValidateWorkoutPlan(p WorkoutPlan) error {
	if strings.TrimSpace(p.UserID) == "" {
		return validationErrorf("userId", "user ID is required and must be a non-empty string")
	}
	if strings.TrimSpace(p.Name) == "" {
		return validationErrorf("name", "workout plan name is required and must be a non-empty string")
	}
	if len(p.Name) > MaxPlanNameLen {
		return validationErrorf("name", "workout plan name must be at most %d characters", MaxPlanNameLen)
	}
	if len(p.Exercises) == 0 {
		return validationErrorf("exercises", "workout plan must contain at least one exercise")
	}
	for i, e := range p.Exercises {
		if err := ValidateExercise(e); err != nil {
			return validationErrorf("exercises", "exercise at index %d: %s", i, err.Error())
		}
	}
	return nil
}

// ExerciseByID returns the exercise with the given ID, or false.
func (p WorkoutPlan) ExerciseByID(id string) (Exercise, bool) {
	for _, e := range p.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return Exercise{}, false
}
