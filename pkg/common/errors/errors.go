package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/duynguyendang/quadcql/pkg/store"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a common error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	// Check for existing AppError
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Map sentinel errors
	if errors.Is(err, ErrInvalidInput) {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}
	if isBadPattern(err) {
		return NewAppError(http.StatusBadRequest, "Invalid pattern", err)
	}
	if errors.Is(err, store.ErrUnsupportedPredicate) {
		return NewAppError(http.StatusNotImplemented, "Not supported by this backend", err)
	}
	var readErr *cql.StoreReadError
	if errors.As(err, &readErr) {
		return NewAppError(http.StatusBadGateway, "Store read failed", err)
	}
	if errors.Is(err, ErrNotFound) {
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	}

	// Default to internal server error
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}

func isBadPattern(err error) bool {
	for _, target := range []error{
		rdf.ErrInvalidTerm,
		rdf.ErrUnsupportedPosition,
		cql.ErrWildcardInMutation,
		cql.ErrUnknownTable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
