package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// LoginResponse reports whether the credentials matched an account.
type LoginResponse struct {
	Exists bool `json:"exists"`
}

// handleLogin checks a username and password. Unknown users and wrong
// passwords both answer exists=false.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ok, err := s.service.CheckCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, LoginResponse{Exists: ok})
}

// handleGetProfile returns the profile of one account.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("invalid id: %w", err), http.StatusBadRequest)
		return
	}

	profile, err := s.service.GetProfile(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, profile)
}
