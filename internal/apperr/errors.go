// Package apperr defines the error taxonomy shared by the store, services and controllers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrStorage matches any *StorageError.
	ErrStorage = errors.New("storage failure")

	// ErrUnauthenticated is returned when no acting account is available.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports caller input that violates a precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is shorthand for building a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an identifier that does not resolve.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound is shorthand for building a *NotFoundError.
func NotFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// StorageError wraps a failed Record Store call. Code and Constraint are
// populated for PostgreSQL constraint violations.
type StorageError struct {
	Op         string
	Code       string
	Constraint string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("storage error during %s (constraint %s): %v", e.Op, e.Constraint, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsConstraintViolation reports whether the failure came from an integrity
// constraint (SQLSTATE class 23).
func (e *StorageError) IsConstraintViolation() bool {
	return len(e.Code) == 5 && e.Code[:2] == "23"
}

// Storage wraps err as a *StorageError for op. A nil err yields nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// HTTPStatus maps an error from the taxonomy onto an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
