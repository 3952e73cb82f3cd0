package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meltforce/gymtrack/internal/models"
)

// handleWatchPlans streams the user's plan list as server-sent events. The
// initial snapshot is sent immediately; subsequent events follow every plan
// mutation until the client disconnects.
func (s *Server) handleWatchPlans(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan []models.WorkoutPlan, 4)
	unsubscribe := s.db.WatchPlans(uid, func(plans []models.WorkoutPlan, err error) {
		if err != nil {
			s.log.Warn("plan watch fetch failed", "user", uid, "error", err)
			return
		}
		select {
		case events <- plans:
		default:
			// Drop when the client is not keeping up; the next
			// mutation delivers a full snapshot anyway.
		}
	})
	defer unsubscribe()

	initial, err := s.db.QueryPlans(r.Context(), uid, false)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeSSE(w, initial)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case plans := <-events:
			writeSSE(w, plans)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, plans []models.WorkoutPlan) {
	data, err := json.Marshal(plans)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: plans\ndata: %s\n\n", data)
}
