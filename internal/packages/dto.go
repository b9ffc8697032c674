// AngelaMos | 2026
// dto.go

package packages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

type AddRequest struct {
	Name     string `form:"package_name" validate:"required,max=200"`
	Category string `form:"category"     validate:"required,max=200"`
	Rating   string `form:"rating"       validate:"required"`
}

// EditRequest fields left empty keep their stored value.
type EditRequest struct {
	Name     string `form:"package_name" validate:"omitempty,max=200"`
	Category string `form:"category"     validate:"omitempty,max=200"`
	Rating   string `form:"rating"`
}

func (r *EditRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
	r.Rating = strings.TrimSpace(r.Rating)
}

func (r *AddRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
	r.Rating = strings.TrimSpace(r.Rating)
}

func parseRating(raw string) (int, error) {
	rating, err := strconv.Atoi(raw)
	if err != nil || !validRating(rating) {
		return 0, core.ValidationError(fmt.Sprintf(
			"rating must be a whole number between %d and %d",
			MinRating,
			MaxRating,
		))
	}
	return rating, nil
}
