package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/gymtrack/internal/auth"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/offline"
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/workout"
)

// Store is the persistence surface the handlers need. Satisfied by
// *storage.DB.
type Store interface {
	QueryPlans(ctx context.Context, userID string, activeOnly bool) ([]models.WorkoutPlan, error)
	CreatePlan(ctx context.Context, plan models.WorkoutPlan) error
	GetPlan(ctx context.Context, planID, userID string) (models.WorkoutPlan, error)
	UpdatePlan(ctx context.Context, plan models.WorkoutPlan) error
	DeletePlan(ctx context.Context, planID, userID string) error
	TogglePlanActive(ctx context.Context, planID, userID string) (models.WorkoutPlan, error)
	WatchPlans(userID string, listener storage.PlanListener) (unsubscribe func())

	QuerySessions(ctx context.Context, userID string, status models.SessionStatus, limit int) ([]models.WorkoutSession, error)
	GetSession(ctx context.Context, sessionID, userID string) (models.WorkoutSession, error)
	DeleteSession(ctx context.Context, sessionID, userID string) error
	LastCompletedSession(ctx context.Context, userID, planID string) (models.WorkoutSession, error)
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db         Store
	auth       *auth.Service
	offline    *offline.Store
	workouts   *workout.Manager
	reconciler *offline.Reconciler
	log        *slog.Logger
	router     chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, authSvc *auth.Service, store *offline.Store, workouts *workout.Manager, reconciler *offline.Reconciler, log *slog.Logger) *Server {
	s := &Server{
		db:         db,
		auth:       authSvc,
		offline:    store,
		workouts:   workouts,
		reconciler: reconciler,
		log:        log,
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Post("/api/v1/auth/register", s.handleRegister)
	s.router.Post("/api/v1/auth/login", s.handleLogin)

	// Everything else requires a bearer token.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(s.auth))

		r.Post("/auth/logout", s.handleLogout)
		r.Get("/me", s.handleMe)
		r.Put("/me/preferences", s.handleUpdatePreferences)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Post("/", s.handleCreatePlan)
			r.Get("/watch", s.handleWatchPlans)
			r.Get("/{id}", s.handleGetPlan)
			r.Put("/{id}", s.handleUpdatePlan)
			r.Delete("/{id}", s.handleDeletePlan)
			r.Post("/{id}/toggle", s.handleTogglePlan)
			r.Get("/{id}/suggestions", s.handlePlanSuggestions)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleDeleteSession)
		})

		r.Route("/workout", func(r chi.Router) {
			r.Post("/start", s.handleStartWorkout)
			r.Post("/load", s.handleLoadWorkout)
			r.Get("/", s.handleCurrentWorkout)
			r.Post("/sets", s.handleCompleteSet)
			r.Post("/exercises/complete", s.handleCompleteExercise)
			r.Post("/exercises/skip", s.handleSkipExercise)
			r.Post("/next", s.handleNextExercise)
			r.Post("/previous", s.handlePreviousExercise)
			r.Post("/pause", s.handlePauseWorkout)
			r.Post("/resume", s.handleResumeWorkout)
			r.Post("/complete", s.handleCompleteWorkout)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Get("/summary", s.handleProgressSummary)
			r.Get("/records", s.handlePersonalRecords)
			r.Get("/frequency", s.handleFrequency)
			r.Get("/consistency", s.handleConsistency)
			r.Get("/volume", s.handleVolumeTrends)
		})

		r.Post("/sync", s.handleSync)
		r.Get("/offline/status", s.handleOfflineStatus)
	})
}
