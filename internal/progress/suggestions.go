package progress

import "github.com/meltforce/gymtrack/internal/models"

// Performance is the last logged reps/weight for one exercise.
type Performance struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// LastExercisePerformance extracts the final logged set for an exercise from
// the most recent prior session of the same plan. Returns nil when the
// exercise was never logged.
func LastExercisePerformance(lastSession *models.WorkoutSession, exerciseID string) *Performance {
	if lastSession == nil {
		return nil
	}

	exercise, ok := lastSession.CompletedExercise(exerciseID)
	if !ok || len(exercise.CompletedSets) == 0 {
		return nil
	}

	lastSet := exercise.CompletedSets[len(exercise.CompletedSets)-1]
	return &Performance{Reps: lastSet.Reps, Weight: setWeight(lastSet)}
}

// SuggestedValues pre-populates the next session's targets: the last
// performance when one exists, otherwise the plan's prescription.
func SuggestedValues(lastPerformance *Performance, exercise models.Exercise) Performance {
	if lastPerformance == nil {
		weight := 0.0
		if exercise.Weight != nil {
			weight = *exercise.Weight
		}
		return Performance{Reps: exercise.Reps, Weight: weight}
	}
	return *lastPerformance
}

// UpdatedExercisesFromSession rewrites each plan exercise's reps/weight to
// the last set actually performed in the completed session, for
// progressive-overload bookkeeping. Skipped or unlogged exercises are left
// untouched.
func UpdatedExercisesFromSession(plan models.WorkoutPlan, completed models.WorkoutSession) []models.Exercise {
	updated := make([]models.Exercise, len(plan.Exercises))
	copy(updated, plan.Exercises)

	for i, exercise := range updated {
		ce, ok := completed.CompletedExercise(exercise.ID)
		if !ok || ce.Skipped || len(ce.CompletedSets) == 0 {
			continue
		}

		lastSet := ce.CompletedSets[len(ce.CompletedSets)-1]
		updated[i].Reps = lastSet.Reps
		if lastSet.Weight != nil {
			w := *lastSet.Weight
			updated[i].Weight = &w
		}
	}

	return updated
}
