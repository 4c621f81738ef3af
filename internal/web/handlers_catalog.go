package web

import (
	"net/http"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.service.ListBooks(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, books)
}

// handleCreateBook adds a book and answers 201 with the stored item.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	item, err := s.service.CreateBook(r.Context(), req.toNewBook())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSONStatus(w, http.StatusCreated, item)
}

func (s *Server) handleListExemplars(w http.ResponseWriter, r *http.Request) {
	exemplars, err := s.service.ListExemplars(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, exemplars)
}
