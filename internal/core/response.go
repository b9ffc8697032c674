// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(Response{
		Success: status < http.StatusBadRequest,
		Data:    data,
	})
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// FormatValidationError flattens validator field errors into one message.
func FormatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, formatFieldError(fe))
	}

	return strings.Join(messages, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf(
			"%s must match %s",
			field,
			strings.ToLower(fe.Param()),
		)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
