package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned by UserStore.CreateUser when the username
	// unique constraint rejects the insert.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrNoFile is returned when an import request carries no file.
	ErrNoFile = errors.New("no file provided")

	// errEmptyRow marks a row whose fields are all blank. It never reaches callers.
	errEmptyRow = errors.New("empty row")
)

// Row rejection reasons reported to the caller.
const (
	ReasonInvalidEmail  = "invalid email"
	ReasonMissingFields = "missing required fields"
	ReasonInvalidName   = "invalid name characters"
	ReasonInvalidPhone  = "invalid phone"
)

// ValidationError rejects a single row. Error returns the reason alone
// because it is reported verbatim next to the row.
type ValidationError struct {
	Field  string // Column that failed, empty when several did
	Value  string // The offending value
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// DuplicateEmailError rejects a row whose email is already an account username.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return "email already exists: " + e.Email
}

// ImportError aborts a whole import. Stage names the step that failed.
type ImportError struct {
	Stage string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

func fatal(stage string, err error) error {
	return &ImportError{Stage: stage, Err: err}
}
