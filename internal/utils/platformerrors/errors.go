package platformerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeExternal     ErrorType = "EXTERNAL"
	ErrorTypeStore        ErrorType = "STORE"
	ErrorTypeInternal     ErrorType = "INTERNAL"
)

// Layer represents the application layer where the error occurred
type Layer string

const (
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerInfrastructure Layer = "infrastructure"
)

// PlatformError carries an error category alongside the originating layer so
// handlers can map failures to HTTP statuses without string matching.
type PlatformError struct {
	Type    ErrorType
	Layer   Layer
	Message string
	Err     error
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Layer, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Layer, e.Type, e.Message)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewError creates a new PlatformError.
func NewError(layer Layer, errorType ErrorType, message string, err error) *PlatformError {
	return &PlatformError{
		Type:    errorType,
		Layer:   layer,
		Message: message,
		Err:     err,
	}
}

// AsError wraps err unless it already is a PlatformError, in which case the
// original categorization is preserved.
func AsError(layer Layer, err error, message string) *PlatformError {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr
	}
	return NewError(layer, ErrorTypeInternal, message, err)
}

// TypeOf returns the error type of err, defaulting to internal for errors
// created outside this package.
func TypeOf(err error) ErrorType {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type
	}
	return ErrorTypeInternal
}

// HTTPStatus maps an error to the response status code.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeExternal, ErrorTypeStore:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
