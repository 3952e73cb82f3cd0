package progress

import (
	"math"
	"sort"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// VolumePoint is one session's training volume, for charting.
type VolumePoint struct {
	Date     time.Time `json:"date"`
	Volume   float64   `json:"volume"`
	PlanName string    `json:"planName"`
}

// CalculateSessionVolume sums weight*reps over all non-skipped sets.
func CalculateSessionVolume(session models.WorkoutSession) float64 {
	total := 0.0
	for _, exercise := range session.CompletedExercises {
		if exercise.Skipped {
			continue
		}
		for _, set := range exercise.CompletedSets {
			total += setWeight(set) * float64(set.Reps)
		}
	}
	return total
}

// CalculateVolumeTrends maps each session to a volume point, sorted
// ascending by end date.
func CalculateVolumeTrends(sessions []models.WorkoutSession) []VolumePoint {
	points := make([]VolumePoint, 0, len(sessions))
	for _, s := range sessions {
		points = append(points, VolumePoint{
			Date:     sessionEnd(s),
			Volume:   CalculateSessionVolume(s),
			PlanName: s.PlanName,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// Summary aggregates every analytics product for one user.
type Summary struct {
	PersonalRecords map[string]PersonalRecord `json:"personalRecords"`
	Frequency       FrequencyStats            `json:"frequency"`
	Consistency     ConsistencyStats          `json:"consistency"`
	VolumeTrends    []VolumePoint             `json:"volumeTrends"`
	TotalWorkouts   int                       `json:"totalWorkouts"`
	TotalVolume     float64                   `json:"totalVolume"`
}

// Summarize computes the full analytics summary over a session history.
func Summarize(sessions []models.WorkoutSession, windowDays int, now time.Time) Summary {
	summary := Summary{
		PersonalRecords: CalculatePersonalRecords(sessions),
		Frequency:       CalculateWorkoutFrequency(sessions, windowDays, now),
		Consistency:     CalculateConsistencyMetrics(sessions, windowDays, now),
		VolumeTrends:    CalculateVolumeTrends(sessions),
		TotalWorkouts:   len(sessions),
	}
	for _, s := range sessions {
		summary.TotalVolume += CalculateSessionVolume(s)
	}
	summary.TotalVolume = math.Round(summary.TotalVolume)
	return summary
}
