package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/JonMunkholm/biblioteca/internal/core"
)

// importFields are the accepted multipart field names for the upload.
var importFields = []string{"file", "archivo"}

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// ImportResponse is the body of a completed import.
type ImportResponse struct {
	Message   string               `json:"message"`
	File      string               `json:"file"`
	Created   int                  `json:"created"`
	Skipped   int                  `json:"skipped"`
	Records   []core.CreatedRecord `json:"records"`
	Errors    []core.RowError      `json:"errors"`
	RequestID string               `json:"request_id,omitempty"`
}

// handleImportUsers accepts a CSV or XLSX upload and creates one account per valid row.
// Rejected rows are reported in the body of a 200 response; only file-level failures
// produce an error status.
func (s *Server) handleImportUsers(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(min(maxSize, multipartMemory)); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("file too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := formFile(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	outcome, err := s.service.ImportUsers(ctx, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, ImportResponse{
		Message:   importMessage(outcome),
		File:      outcome.FileName,
		Created:   outcome.Created,
		Skipped:   outcome.Skipped,
		Records:   outcome.Records,
		Errors:    outcome.Errors,
		RequestID: requestID(r),
	})
}

// formFile returns the first upload found under importFields.
func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range importFields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, fmt.Errorf("invalid request: %w", err)
		}
	}
	return nil, nil, core.ErrNoFile
}

func importMessage(o core.ImportOutcome) string {
	switch {
	case o.Created == 0 && len(o.Errors) == 0:
		return "File processed: no users found"
	case len(o.Errors) == 0:
		return fmt.Sprintf("File processed: %d users created", o.Created)
	default:
		return fmt.Sprintf("File processed: %d users created, %d rows rejected", o.Created, len(o.Errors))
	}
}

// handleImportStatus reports how many imports are running.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ImportLimiterStatus())
}
