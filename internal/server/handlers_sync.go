package server

import "net/http"

// handleSync drains the offline queue for the user, pushing pending
// sessions and queued operations to the database.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result := s.reconciler.PerformFullSync(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOfflineStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.offline.StorageInfo(userID(r)))
}
