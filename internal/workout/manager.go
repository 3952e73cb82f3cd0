package workout

import (
	"log/slog"
	"sync"

	"github.com/meltforce/gymtrack/internal/models"
)

// Manager holds at most one live engine per user for the HTTP layer.
type Manager struct {
	mu      sync.Mutex
	engines map[string]*Engine

	store   SessionStore
	offline OfflineQueue
	log     *slog.Logger
}

// NewManager creates an empty engine registry.
func NewManager(store SessionStore, queue OfflineQueue, log *slog.Logger) *Manager {
	return &Manager{
		engines: make(map[string]*Engine),
		store:   store,
		offline: queue,
		log:     log,
	}
}

// Engine returns the user's live engine, if any.
func (m *Manager) Engine(userID string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engines[userID]
	return e, ok
}

// Create replaces any existing engine for the user with a fresh one for
// the given plan. The previous engine's autosave timer is stopped.
func (m *Manager) Create(userID string, plan models.WorkoutPlan) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.engines[userID]; ok {
		old.Close()
	}

	e := NewEngine(userID, plan, m.store, m.offline, m.log)
	m.engines[userID] = e
	return e
}

// Remove tears down the user's engine once a workout finishes.
func (m *Manager) Remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[userID]; ok {
		e.Close()
		delete(m.engines, userID)
	}
}
