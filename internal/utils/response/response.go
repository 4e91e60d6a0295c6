// Package response turns handler outcomes into JSON HTTP responses.
//
// Handlers never pick status codes themselves. They build a Result whose
// Kind says what happened (OK, Created, Validation, NotFound, Internal);
// Write converts the kind to a status code and the result to the
// envelope every endpoint answers with:
//
//	{ "success": true,  "message": "Student retrieved successfully", "data": {...} }
//	{ "success": false, "message": "Invalid student data", "errors": ["field email is required"] }
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Kind classifies a handler outcome.
type Kind int

const (
	KindOK Kind = iota
	KindCreated
	KindValidation
	KindNotFound
	KindInternal
)

// StatusCode maps a kind to its HTTP status.
func (k Kind) StatusCode() int {
	switch k {
	case KindOK:
		return http.StatusOK
	case KindCreated:
		return http.StatusCreated
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindCreated:
		return "created"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Result is either a success carrying data or a failure carrying
// messages, never both. Build one with OK, Created, Validation, NotFound
// or Internal.
type Result[T any] struct {
	kind     Kind
	message  string
	data     T
	errors   []string
	location string
}

// OK is a 200 success.
func OK[T any](data T, message string) Result[T] {
	return Result[T]{kind: KindOK, message: message, data: data}
}

// Created is a 201 success; location becomes the Location header.
func Created[T any](data T, message, location string) Result[T] {
	return Result[T]{kind: KindCreated, message: message, data: data, location: location}
}

// Validation is a 400 failure listing what was wrong with the request.
func Validation[T any](message string, errs ...string) Result[T] {
	return Result[T]{kind: KindValidation, message: message, errors: errs}
}

// NotFound is a 404 failure.
func NotFound[T any](message string) Result[T] {
	return Result[T]{kind: KindNotFound, message: message}
}

// Internal is a 500 failure; the error text is the single errors entry.
func Internal[T any](message string, err error) Result[T] {
	return Result[T]{kind: KindInternal, message: message, errors: []string{err.Error()}}
}

func (r Result[T]) Kind() Kind { return r.kind }
func (r Result[T]) Message() string { return r.message }
func (r Result[T]) Errors() []string { return r.errors }
func (r Result[T]) Location() string { return r.location }
func (r Result[T]) Succeeded() bool { return r.kind == KindOK || r.kind == KindCreated }
func (r Result[T]) StatusCode() int { return r.kind.StatusCode() }

// Data returns the payload and whether the result is a success.
func (r Result[T]) Data() (T, bool) {
	return r.data, r.Succeeded()
}

// Envelope is the wire form of r.
func (r Result[T]) Envelope() types.APIResponse[T] {
	if !r.Succeeded() {
		return types.APIResponse[T]{Success: false, Message: r.message, Errors: r.errors}
	}
	data := r.data
	return types.APIResponse[T]{Success: true, Message: r.message, Data: &data}
}

// Write sends r with the status code of its kind.
func Write[T any](w http.ResponseWriter, r Result[T]) error {
	if r.location != "" {
		w.Header().Set("Location", r.location)
	}
	return WriteJSON(w, r.StatusCode(), r.Envelope())
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// ValidationMessages converts validator field errors into one plain
// English sentence each. Field() is the JSON name when the validator was
// built with a json tag-name function.
func ValidationMessages(errs validator.ValidationErrors) []string {
	messages := make([]string, 0, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			messages = append(messages, fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return messages
}
