package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by the service wraps exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrStorage      = errors.New("storage unavailable")
	ErrNotification = errors.New("notification failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("too many requests")
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrAttemptNotFound is returned for unknown attempts and for attempts owned by someone else.
	ErrAttemptNotFound = fmt.Errorf("attempt %w", ErrNotFound)

	ErrQuizInactive      = fmt.Errorf("quiz is not active: %w", ErrInvalidState)
	ErrAttemptsExhausted = fmt.Errorf("maximum attempts reached: %w", ErrInvalidState)
	ErrAttemptConflict   = fmt.Errorf("attempt number already taken: %w", ErrInvalidState)
	ErrNotPassed         = fmt.Errorf("attempt did not pass: %w", ErrInvalidState)
)

// StateError reports an operation that the attempt's current status does not allow.
type StateError struct {
	Op     string
	Status AttemptStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: attempt is %s", e.Op, e.Status)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field violations found before persistence.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StorageError wraps a driver failure so callers can match ErrStorage.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}
