// AngelaMos | 2026
// validate.go

package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator reports fields by their form name so messages match the
// inputs the user filled in.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
