package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/progress"
)

const defaultWindowDays = 30

func windowDays(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultWindowDays, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// completedSessions loads the full completed history for analytics. The
// calculators take care of windowing themselves.
func (s *Server) completedSessions(r *http.Request) ([]models.WorkoutSession, error) {
	return s.db.QuerySessions(r.Context(), userID(r), models.StatusCompleted, 0)
}

func (s *Server) handleProgressSummary(w http.ResponseWriter, r *http.Request) {
	days, ok := windowDays(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid days")
		return
	}
	sessions, err := s.completedSessions(r)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.Summarize(sessions, days, time.Now()))
}

func (s *Server) handlePersonalRecords(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.completedSessions(r)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.CalculatePersonalRecords(sessions))
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	days, ok := windowDays(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid days")
		return
	}
	sessions, err := s.completedSessions(r)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.CalculateWorkoutFrequency(sessions, days, time.Now()))
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	days, ok := windowDays(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid days")
		return
	}
	sessions, err := s.completedSessions(r)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.CalculateConsistencyMetrics(sessions, days, time.Now()))
}

func (s *Server) handleVolumeTrends(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.completedSessions(r)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.CalculateVolumeTrends(sessions))
}
