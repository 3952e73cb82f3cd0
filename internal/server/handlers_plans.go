package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/progress"
	"github.com/meltforce/gymtrack/internal/storage"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	activeOnly := r.URL.Query().Get("active") == "true"

	plans, err := s.db.QueryPlans(r.Context(), uid, activeOnly)
	if err != nil {
		// Fall back to the offline cache so the client keeps working
		// while the database is unreachable.
		cached := s.offline.CachedPlans(uid)
		if cached == nil {
			s.log.Error("list plans failed, no usable cache", "user", uid, "error", err)
			writeStorageError(w, err)
			return
		}
		s.log.Warn("serving plans from offline cache", "user", uid, "error", err)
		if activeOnly {
			cached = filterActive(cached)
		}
		writeJSON(w, http.StatusOK, cached)
		return
	}

	if !activeOnly {
		if err := s.offline.CachePlans(uid, plans); err != nil {
			s.log.Warn("failed to refresh plan cache", "user", uid, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, plans)
}

func filterActive(plans []models.WorkoutPlan) []models.WorkoutPlan {
	out := make([]models.WorkoutPlan, 0, len(plans))
	for _, p := range plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.WorkoutPlan
	if !decodeJSON(w, r, &plan) {
		return
	}
	plan = models.NewWorkoutPlan(userID(r), plan)
	if err := models.ValidateWorkoutPlan(plan); err != nil {
		writeStorageError(w, err)
		return
	}
	if err := s.db.CreatePlan(r.Context(), plan); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.db.GetPlan(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.WorkoutPlan
	if !decodeJSON(w, r, &plan) {
		return
	}
	plan.ID = chi.URLParam(r, "id")
	plan.UserID = userID(r)
	if err := models.ValidateWorkoutPlan(plan); err != nil {
		writeStorageError(w, err)
		return
	}
	if err := s.db.UpdatePlan(r.Context(), plan); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeletePlan(r.Context(), chi.URLParam(r, "id"), userID(r)); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleTogglePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.db.TogglePlanActive(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isActive": plan.IsActive})
}

// handlePlanSuggestions returns progressive overload suggestions for one
// exercise, based on the last completed session of the plan.
func (s *Server) handlePlanSuggestions(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	planID := chi.URLParam(r, "id")
	exerciseID := r.URL.Query().Get("exerciseId")
	if exerciseID == "" {
		writeError(w, http.StatusBadRequest, "exerciseId query parameter required")
		return
	}

	plan, err := s.db.GetPlan(r.Context(), planID, uid)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	exercise, ok := plan.ExerciseByID(exerciseID)
	if !ok {
		writeError(w, http.StatusNotFound, "exercise not found in plan")
		return
	}

	var perf *progress.Performance
	last, err := s.db.LastCompletedSession(r.Context(), uid, planID)
	switch {
	case err == nil:
		perf = progress.LastExercisePerformance(&last, exerciseID)
	case errors.Is(err, storage.ErrNotFound):
		// First time running this plan, fall through to plan defaults.
	default:
		writeStorageError(w, err)
		return
	}
	suggested := progress.SuggestedValues(perf, exercise)
	writeJSON(w, http.StatusOK, map[string]any{
		"exerciseId": exerciseID,
		"suggested":  suggested,
		"last":       perf,
	})
}
