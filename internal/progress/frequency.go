package progress

import (
	"math"
	"sort"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

const dayFormat = "2006-01-02"

// FrequencyStats summarizes how often the user trained within a window.
type FrequencyStats struct {
	TotalWorkouts   int      `json:"totalWorkouts"`
	AveragePerWeek  float64  `json:"averagePerWeek"`
	AveragePerMonth float64  `json:"averagePerMonth"`
	CurrentStreak   int      `json:"currentStreak"`
	LongestStreak   int      `json:"longestStreak"`
	WorkoutDays     []string `json:"workoutDays"` // sorted YYYY-MM-DD
}

// ConsistencyStats blends frequency and regularity into a 0-100 score.
type ConsistencyStats struct {
	ConsistencyScore           int     `json:"consistencyScore"`
	WorkoutDaysPercentage      float64 `json:"workoutDaysPercentage"`
	AverageDaysBetweenWorkouts float64 `json:"averageDaysBetweenWorkouts"`
	MostActiveDay              string  `json:"mostActiveDay,omitempty"`
	LeastActiveDay             string  `json:"leastActiveDay,omitempty"`
}

// CalculateWorkoutFrequency filters to sessions ending within windowDays of
// now and computes totals, weekly/monthly averages (rounded to 1 decimal),
// and current/longest streaks of consecutive calendar days.
func CalculateWorkoutFrequency(sessions []models.WorkoutSession, windowDays int, now time.Time) FrequencyStats {
	stats := FrequencyStats{WorkoutDays: []string{}}
	if len(sessions) == 0 {
		return stats
	}

	recent := recentSessions(sessions, windowDays, now)
	days := uniqueWorkoutDays(recent)

	stats.TotalWorkouts = len(recent)
	stats.WorkoutDays = days
	stats.AveragePerWeek = round1(float64(len(recent)) / (float64(windowDays) / 7))
	stats.AveragePerMonth = round1(float64(len(recent)) / (float64(windowDays) / 30))
	stats.CurrentStreak, stats.LongestStreak = calculateStreaks(days, now)

	return stats
}

// calculateStreaks computes the current and longest runs of consecutive
// calendar days. A current streak only counts when the most recent workout
// day is today or yesterday relative to now.
func calculateStreaks(days []string, now time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	daySet := make(map[string]bool, len(days))
	for _, d := range days {
		daySet[d] = true
	}

	today := now.UTC().Format(dayFormat)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(dayFormat)

	var anchor time.Time
	switch {
	case daySet[today]:
		anchor = now.UTC().Truncate(24 * time.Hour)
	case daySet[yesterday]:
		anchor = now.UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	}
	if !anchor.IsZero() {
		for daySet[anchor.Format(dayFormat)] {
			current++
			anchor = anchor.AddDate(0, 0, -1)
		}
	}

	sorted := append([]string(nil), days...)
	sort.Strings(sorted)

	run := 1
	longest = 1
	for i := 1; i < len(sorted); i++ {
		prev, errPrev := time.Parse(dayFormat, sorted[i-1])
		cur, errCur := time.Parse(dayFormat, sorted[i])
		if errPrev == nil && errCur == nil && cur.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return current, longest
}

// CalculateConsistencyMetrics scores regularity of training within a window.
// consistencyScore = round((frequencyScore + regularityScore) / 2), where
// frequencyScore targets 3 workouts/week and regularityScore penalizes
// average gaps between workout days.
func CalculateConsistencyMetrics(sessions []models.WorkoutSession, windowDays int, now time.Time) ConsistencyStats {
	var stats ConsistencyStats
	if len(sessions) == 0 {
		return stats
	}

	recent := recentSessions(sessions, windowDays, now)
	if len(recent) == 0 {
		return stats
	}

	days := uniqueWorkoutDays(recent)
	stats.WorkoutDaysPercentage = round1(float64(len(days)) / float64(windowDays) * 100)

	if len(days) > 1 {
		totalGap := 0.0
		for i := 1; i < len(days); i++ {
			prev, errPrev := time.Parse(dayFormat, days[i-1])
			cur, errCur := time.Parse(dayFormat, days[i])
			if errPrev == nil && errCur == nil {
				totalGap += cur.Sub(prev).Hours() / 24
			}
		}
		stats.AverageDaysBetweenWorkouts = round1(totalGap / float64(len(days)-1))
	}

	stats.MostActiveDay, stats.LeastActiveDay = activeDaysOfWeek(recent)

	const targetPerWeek = 3.0
	perWeek := float64(len(recent)) / float64(windowDays) * 7
	frequencyScore := math.Min(perWeek/targetPerWeek*100, 100)

	regularityScore := 0.0
	if stats.AverageDaysBetweenWorkouts > 0 {
		regularityScore = math.Max(0, 100-stats.AverageDaysBetweenWorkouts*10)
	}

	stats.ConsistencyScore = int(math.Round((frequencyScore + regularityScore) / 2))
	return stats
}

func activeDaysOfWeek(sessions []models.WorkoutSession) (most, least string) {
	counts := make(map[time.Weekday]int)
	for _, s := range sessions {
		counts[sessionEnd(s).UTC().Weekday()]++
	}

	maxCount := -1
	minCount := math.MaxInt
	for day := time.Sunday; day <= time.Saturday; day++ {
		c := counts[day]
		if c > maxCount {
			maxCount = c
			most = day.String()
		}
		if c > 0 && c < minCount {
			minCount = c
			least = day.String()
		}
	}
	return most, least
}

// recentSessions keeps sessions ending within windowDays of now.
func recentSessions(sessions []models.WorkoutSession, windowDays int, now time.Time) []models.WorkoutSession {
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	var recent []models.WorkoutSession
	for _, s := range sessions {
		if !sessionEnd(s).Before(cutoff) {
			recent = append(recent, s)
		}
	}
	return recent
}

// uniqueWorkoutDays returns the sorted set of UTC calendar days with at
// least one session.
func uniqueWorkoutDays(sessions []models.WorkoutSession) []string {
	seen := make(map[string]bool)
	var days []string
	for _, s := range sessions {
		day := sessionEnd(s).UTC().Format(dayFormat)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Strings(days)
	if days == nil {
		days = []string{}
	}
	return days
}

// sessionEnd falls back to the start time for sessions missing an end time.
func sessionEnd(s models.WorkoutSession) time.Time {
	if s.EndTime != nil {
		return *s.EndTime
	}
	return s.StartTime
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
