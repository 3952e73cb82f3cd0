package workout

import (
	"context"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// startAutosaveLocked launches the periodic best-effort save. Callers hold
// e.mu. An existing timer is stopped first so only one runs per engine.
func (e *Engine) startAutosaveLocked() {
	e.stopAutosaveLocked()

	stop := make(chan struct{})
	e.stopAutosave = stop

	go func() {
		ticker := time.NewTicker(e.saveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.autosave()
			}
		}
	}()
}

// stopAutosaveLocked cancels the timer so nothing writes to a finalized
// session. Callers hold e.mu.
func (e *Engine) stopAutosaveLocked() {
	if e.stopAutosave != nil {
		close(e.stopAutosave)
		e.stopAutosave = nil
	}
}

// autosave persists the current snapshot. Failures are logged and mirrored
// to the local snapshot; they never surface to the user mid-workout.
func (e *Engine) autosave() {
	e.mu.Lock()
	if e.session == nil || e.session.Status == models.StatusCompleted {
		e.mu.Unlock()
		return
	}
	snapshot := *e.session
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.store.UpdateSession(ctx, snapshot); err != nil {
		e.log.Warn("autosave failed", "session", snapshot.ID, "error", err)
		if e.offline != nil {
			if saveErr := e.offline.SaveActiveSession(e.userID, snapshot); saveErr != nil {
				e.log.Error("failed to save offline snapshot", "session", snapshot.ID, "error", saveErr)
			}
		}
	}
}
