package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/biblioteca/internal/core"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// CreateBookRequest is the body of POST /api/books.
type CreateBookRequest struct {
	Title     string `json:"title" validate:"required,max=500"`
	Author    string `json:"author" validate:"max=300"`
	Publisher string `json:"publisher" validate:"max=300"`
	ISBN      string `json:"isbn" validate:"omitempty,isbn"`
}

func (r CreateBookRequest) toNewBook() core.NewBook {
	return core.NewBook{
		Title:     r.Title,
		Author:    r.Author,
		Publisher: r.Publisher,
		ISBN:      strings.ReplaceAll(r.ISBN, "-", ""),
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// Failures come back as *core.UserError carrying a VAL001 message.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return invalidRequest(fmt.Errorf("invalid request body: %w", err), "The request body is not valid JSON")
	}

	if err := getValidator().Struct(dst); err != nil {
		return invalidRequest(fmt.Errorf("invalid request: %w", err), describeValidation(err))
	}
	return nil
}

// describeValidation reports the first failing field.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "The request body is not valid"
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", e.Field())
	case "max":
		return fmt.Sprintf("Field '%s' is too long", e.Field())
	default:
		return fmt.Sprintf("Field '%s' failed the '%s' check", e.Field(), e.Tag())
	}
}

func invalidRequest(technical error, message string) error {
	return &core.UserError{
		Technical: technical,
		User: core.UserMessage{
			Message: message,
			Action:  "Check the request fields and try again",
			Code:    "VAL001",
		},
	}
}
