package progress

import (
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

func sessionOn(end time.Time) models.WorkoutSession {
	return completedSession(end, "Plan", models.CompletedExercise{
		ExerciseID:    "ex-1",
		Name:          "Squat",
		CompletedSets: []models.CompletedSet{{SetNumber: 1, Reps: 5, Weight: ptr(100), CompletedAt: end}},
	})
}

func TestCalculateWorkoutFrequencyEmpty(t *testing.T) {
	stats := CalculateWorkoutFrequency(nil, 30, day(10, 12))
	if stats.TotalWorkouts != 0 || stats.CurrentStreak != 0 || stats.LongestStreak != 0 {
		t.Errorf("empty history should zero everything: %+v", stats)
	}
	if stats.WorkoutDays == nil {
		t.Error("WorkoutDays should be an empty slice, not nil")
	}
}

func TestCalculateWorkoutFrequency(t *testing.T) {
	now := day(10, 12)
	sessions := []models.WorkoutSession{
		sessionOn(day(1, 10)),
		sessionOn(day(2, 10)),
		sessionOn(day(7, 10)),
		sessionOn(day(8, 10)),
		sessionOn(day(9, 10)),
	}

	stats := CalculateWorkoutFrequency(sessions, 30, now)

	if stats.TotalWorkouts != 5 {
		t.Errorf("TotalWorkouts = %d, want 5", stats.TotalWorkouts)
	}
	// 5 workouts over a 30-day window.
	if stats.AveragePerWeek != 1.2 {
		t.Errorf("AveragePerWeek = %v, want 1.2", stats.AveragePerWeek)
	}
	if stats.AveragePerMonth != 5.0 {
		t.Errorf("AveragePerMonth = %v, want 5", stats.AveragePerMonth)
	}
	// Last workout day is 2026-03-09, yesterday relative to now, so the
	// 7th-9th run counts as the current streak.
	if stats.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", stats.CurrentStreak)
	}
	if stats.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", stats.LongestStreak)
	}
	if len(stats.WorkoutDays) != 5 || stats.WorkoutDays[0] != "2026-03-01" {
		t.Errorf("WorkoutDays = %v", stats.WorkoutDays)
	}
}

func TestCurrentStreakBrokenByGap(t *testing.T) {
	now := day(10, 12)
	sessions := []models.WorkoutSession{
		sessionOn(day(5, 10)),
		sessionOn(day(6, 10)),
		sessionOn(day(7, 10)),
	}

	stats := CalculateWorkoutFrequency(sessions, 30, now)

	// Most recent workout was three days ago: no current streak, but the
	// three-day run still counts as longest.
	if stats.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0", stats.CurrentStreak)
	}
	if stats.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", stats.LongestStreak)
	}
}

func TestCurrentStreakIncludesToday(t *testing.T) {
	now := day(10, 18)
	sessions := []models.WorkoutSession{
		sessionOn(day(9, 10)),
		sessionOn(day(10, 8)),
	}

	stats := CalculateWorkoutFrequency(sessions, 30, now)
	if stats.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", stats.CurrentStreak)
	}
}

func TestFrequencyWindowExcludesOldSessions(t *testing.T) {
	now := day(28, 12)
	sessions := []models.WorkoutSession{
		sessionOn(time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)), // outside 30-day window
		sessionOn(day(27, 10)),
	}

	stats := CalculateWorkoutFrequency(sessions, 30, now)
	if stats.TotalWorkouts != 1 {
		t.Errorf("TotalWorkouts = %d, want 1", stats.TotalWorkouts)
	}
}

func TestCalculateConsistencyMetrics(t *testing.T) {
	now := day(10, 18)
	// Every other day: 2nd, 4th, 6th, 8th, 10th.
	var sessions []models.WorkoutSession
	for d := 2; d <= 10; d += 2 {
		sessions = append(sessions, sessionOn(day(d, 9)))
	}

	stats := CalculateConsistencyMetrics(sessions, 30, now)

	if stats.AverageDaysBetweenWorkouts != 2.0 {
		t.Errorf("AverageDaysBetweenWorkouts = %v, want 2", stats.AverageDaysBetweenWorkouts)
	}
	if stats.WorkoutDaysPercentage != 16.7 {
		t.Errorf("WorkoutDaysPercentage = %v, want 16.7", stats.WorkoutDaysPercentage)
	}
	// frequencyScore = min((5/30*7)/3*100, 100) = 38.888..
	// regularityScore = 100 - 2*10 = 80
	// score = round((38.888 + 80) / 2) = 59
	if stats.ConsistencyScore != 59 {
		t.Errorf("ConsistencyScore = %d, want 59", stats.ConsistencyScore)
	}
}

func TestConsistencyEmpty(t *testing.T) {
	stats := CalculateConsistencyMetrics(nil, 30, day(10, 12))
	if stats.ConsistencyScore != 0 || stats.AverageDaysBetweenWorkouts != 0 {
		t.Errorf("empty history should zero the score: %+v", stats)
	}
}

func TestActiveDaysOfWeek(t *testing.T) {
	// 2026-03-02 is a Monday; 2026-03-07 a Saturday.
	sessions := []models.WorkoutSession{
		sessionOn(day(2, 10)),
		sessionOn(day(9, 10)),
		sessionOn(day(7, 10)),
	}

	stats := CalculateConsistencyMetrics(sessions, 30, day(10, 12))
	if stats.MostActiveDay != "Monday" {
		t.Errorf("MostActiveDay = %q, want Monday", stats.MostActiveDay)
	}
	if stats.LeastActiveDay != "Saturday" {
		t.Errorf("LeastActiveDay = %q, want Saturday", stats.LeastActiveDay)
	}
}
