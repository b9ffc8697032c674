// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrInvalidInput    = errors.New("invalid input")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
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

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
}
