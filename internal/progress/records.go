// Package progress derives training statistics from completed workout
// sessions. All functions are pure: they take the session history and an
// explicit reference time, perform no I/O, and are deterministic.
package progress

import (
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// PersonalRecord holds the best observed weight, reps, and volume for one
// exercise name, with the date each maximum was first achieved.
type PersonalRecord struct {
	ExerciseName  string     `json:"exerciseName"`
	MaxWeight     float64    `json:"maxWeight"`
	MaxReps       int        `json:"maxReps"`
	MaxVolume     float64    `json:"maxVolume"`
	MaxWeightDate *time.Time `json:"maxWeightDate,omitempty"`
	MaxRepsDate   *time.Time `json:"maxRepsDate,omitempty"`
	MaxVolumeDate *time.Time `json:"maxVolumeDate,omitempty"`
}

// NewRecord reports a single set value that beat an existing record.
type NewRecord struct {
	ExerciseName  string    `json:"exerciseName"`
	Type          string    `json:"type"` // weight, reps, volume
	Value         float64   `json:"value"`
	PreviousValue float64   `json:"previousValue"`
	Date          time.Time `json:"date"`
}

// CalculatePersonalRecords scans every non-skipped completed exercise across
// all sessions and tracks per-name maxima of weight, reps, and weight*reps.
// Comparisons are strictly greater, so ties keep the earlier date.
func CalculatePersonalRecords(sessions []models.WorkoutSession) map[string]PersonalRecord {
	records := make(map[string]PersonalRecord)

	for _, session := range sessions {
		for _, exercise := range session.CompletedExercises {
			if exercise.Skipped || len(exercise.CompletedSets) == 0 {
				continue
			}

			pr, ok := records[exercise.Name]
			if !ok {
				pr = PersonalRecord{ExerciseName: exercise.Name}
			}

			for _, set := range exercise.CompletedSets {
				weight := setWeight(set)
				volume := weight * float64(set.Reps)
				setDate := set.CompletedAt

				if weight > pr.MaxWeight {
					pr.MaxWeight = weight
					d := setDate
					pr.MaxWeightDate = &d
				}
				if set.Reps > pr.MaxReps {
					pr.MaxReps = set.Reps
					d := setDate
					pr.MaxRepsDate = &d
				}
				if volume > pr.MaxVolume {
					pr.MaxVolume = volume
					d := setDate
					pr.MaxVolumeDate = &d
				}
			}

			records[exercise.Name] = pr
		}
	}

	return records
}

// DetectNewPersonalRecords reports every set value in a single session that
// strictly exceeds the corresponding existing record. existingPRs is not
// mutated.
func DetectNewPersonalRecords(session models.WorkoutSession, existingPRs map[string]PersonalRecord) []NewRecord {
	var newRecords []NewRecord

	for _, exercise := range session.CompletedExercises {
		if exercise.Skipped || len(exercise.CompletedSets) == 0 {
			continue
		}

		existing, hasExisting := existingPRs[exercise.Name]

		for _, set := range exercise.CompletedSets {
			weight := setWeight(set)
			volume := weight * float64(set.Reps)

			if !hasExisting || weight > existing.MaxWeight {
				newRecords = append(newRecords, NewRecord{
					ExerciseName:  exercise.Name,
					Type:          "weight",
					Value:         weight,
					PreviousValue: existing.MaxWeight,
					Date:          set.CompletedAt,
				})
			}
			if !hasExisting || set.Reps > existing.MaxReps {
				newRecords = append(newRecords, NewRecord{
					ExerciseName:  exercise.Name,
					Type:          "reps",
					Value:         float64(set.Reps),
					PreviousValue: float64(existing.MaxReps),
					Date:          set.CompletedAt,
				})
			}
			if !hasExisting || volume > existing.MaxVolume {
				newRecords = append(newRecords, NewRecord{
					ExerciseName:  exercise.Name,
					Type:          "volume",
					Value:         volume,
					PreviousValue: existing.MaxVolume,
					Date:          set.CompletedAt,
				})
			}
		}
	}

	return newRecords
}

func setWeight(set models.CompletedSet) float64 {
	if set.Weight == nil {
		return 0
	}
	return *set.Weight
}
