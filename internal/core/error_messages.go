// Error codes reference
//
// User-facing API errors carry a short code that staff can look up here.
// Row rejections are not listed: they are reported verbatim per row.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this key already exists
//	        Patterns: "duplicate key"
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key: Referenced record does not exist
//	        Patterns: "foreign key"
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//	DB006 - Busy: Database was busy with conflicting operations
//	        Patterns: "deadlock", "database is locked"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid request body
//	         Patterns: "invalid request"
//	VAL002 - Invalid identifier
//	         Patterns: "invalid id"
//	VAL003 - Required field is empty
//	         Patterns: "required field"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large               Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV                  Patterns: "invalid csv"
//	FILE003 - Encoding error               Patterns: "encoding error"
//	FILE004 - No file                      Patterns: "no file provided"
//	FILE005 - Empty file                   Patterns: "empty file"
//	FILE006 - Invalid spreadsheet          Patterns: "invalid spreadsheet"
//	FILE007 - Upload could not be staged   Patterns: "save upload", "open upload"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy: Too many imports in progress   Patterns: "too many imports"
//	IMP002 - Request cancelled                           Patterns: "context canceled"
//	IMP003 - Import timed out                            Patterns: "context deadline exceeded", "timeout"
//
// # Other
//
//	NF001   - Not found             Patterns: "not found"
//	RATE001 - Too many requests     Patterns: "rate limit"
//	ERR000  - Unknown error (fallback; check the logs for the technical error)
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database
	{"duplicate key", UserMessage{"A record with this key already exists", "Check for duplicate entries and try again", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries and try again", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check for duplicate entries and try again", "DB002"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Make sure the referenced record exists first", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB006"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB006"}},

	// Files, before the generic request patterns
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Export the sheet as comma-separated values with one header row", "FILE002"}},
	{"encoding error", UserMessage{"File contains invalid characters", "Save the file with UTF-8 encoding", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV or Excel file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload a file with a header row and at least one user", "FILE005"}},
	{"invalid spreadsheet", UserMessage{"File is not a valid Excel workbook", "Save the file as .xlsx or export it as CSV", "FILE006"}},
	{"save upload", UserMessage{"The upload could not be stored", "Please try again", "FILE007"}},
	{"open upload", UserMessage{"The upload could not be stored", "Please try again", "FILE007"}},

	// Imports
	{"too many imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "IMP002"}},
	{"context deadline exceeded", UserMessage{"Import timed out", "Try a smaller file or try again later", "IMP003"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "IMP003"}},

	// Requests
	{"invalid request", UserMessage{"The request body is not valid", "Check the request fields and try again", "VAL001"}},
	{"invalid id", UserMessage{"The identifier is not valid", "Use the id returned by the API", "VAL002"}},
	{"required field", UserMessage{"Required field is empty", "Fill in every required field", "VAL003"}},
	{"not found", UserMessage{"The requested record was not found", "Check the identifier and try again", "NF001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A *UserError in the chain supplies its own message; otherwise the first
// matching pattern wins and ERR000 is the fallback.
//
//	msg := MapError(errors.New("too many imports in progress"))
//	// msg.Code == "IMP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action" for terminal output.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// UserError pairs a technical error with the message shown to the user.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	if e.Technical != nil {
		return e.Technical.Error()
	}
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}
