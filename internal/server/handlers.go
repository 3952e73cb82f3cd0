package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meltforce/gymtrack/internal/auth"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/workout"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStorageError maps domain and storage errors to HTTP status codes.
func writeStorageError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, workout.ErrNoActiveSession):
		writeError(w, http.StatusConflict, "no active workout session")
	case errors.Is(err, workout.ErrSessionCompleted):
		writeError(w, http.StatusConflict, "workout session already completed")
	case errors.Is(err, workout.ErrInvalidExercise):
		writeError(w, http.StatusBadRequest, "invalid exercise")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type authResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, token, err := s.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, auth.ErrEmailInUse) {
			status = http.StatusConflict
		}
		writeError(w, status, auth.Message(err))
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: profile})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, auth.Message(err))
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: profile})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if token, ok := cutBearer(header); ok {
		s.auth.Logout(token)
	}
	s.workouts.Remove(userID(r))
	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := s.auth.GetUserData(r.Context(), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.UserPreferences
	if !decodeJSON(w, r, &prefs) {
		return
	}
	if err := s.auth.UpdateUserPreferences(r.Context(), userID(r), prefs); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
