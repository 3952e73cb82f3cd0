package storage

import (
	"context"
	"sync"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// PlanListener receives the user's full plan list after every plan mutation.
// A nil error means plans holds the current list.
type PlanListener func(plans []models.WorkoutPlan, err error)

// planWatchHub keeps at most one live subscription per user, so repeated
// registrations cannot cause duplicate callback storms.
type planWatchHub struct {
	mu       sync.Mutex
	watchers map[string]*planWatcher
}

type planWatcher struct {
	listener PlanListener
}

// WatchPlans registers a listener for the user's plan list and returns an
// explicit unsubscribe handle. A second registration for the same user
// replaces the first.
func (db *DB) WatchPlans(userID string, listener PlanListener) (unsubscribe func()) {
	db.plans.mu.Lock()
	defer db.plans.mu.Unlock()

	if db.plans.watchers == nil {
		db.plans.watchers = make(map[string]*planWatcher)
	}

	w := &planWatcher{listener: listener}
	db.plans.watchers[userID] = w

	return func() {
		db.plans.mu.Lock()
		defer db.plans.mu.Unlock()
		if db.plans.watchers[userID] == w {
			delete(db.plans.watchers, userID)
		}
	}
}

// notify delivers the current plan list to the user's watcher, if any.
// fetch runs outside the hub lock; delivery is asynchronous so writers are
// never blocked by a slow listener.
func (h *planWatchHub) notify(userID string, fetch func() ([]models.WorkoutPlan, error)) {
	h.mu.Lock()
	w := h.watchers[userID]
	h.mu.Unlock()

	if w == nil {
		return
	}

	go func() {
		plans, err := fetch()
		w.listener(plans, err)
	}()
}

// planSnapshot returns a fetcher for the user's current plan list, bounded
// so a wedged database cannot leak notifier goroutines.
func (db *DB) planSnapshot(userID string) func() ([]models.WorkoutPlan, error) {
	return func() ([]models.WorkoutPlan, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.QueryPlans(ctx, userID, false)
	}
}
