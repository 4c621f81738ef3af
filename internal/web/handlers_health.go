package web

import (
	"context"
	"net/http"
	"time"
)

// handleHealth reports whether the store answers a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
