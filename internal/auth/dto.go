// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

type LoginRequest struct {
	Email      string `form:"email"       validate:"required,email,max=255"`
	Password   string `form:"password"    validate:"required,max=128"`
	RememberMe bool   `form:"remember_me"`
}

type RegisterRequest struct {
	FullName string `form:"full_name" validate:"omitempty,max=100"`
	Email    string `form:"email"     validate:"required,email,max=255"`
	Password string `form:"password"  validate:"required,min=8,max=128"`
	Confirm  string `form:"confirm"   validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password" validate:"required,max=128"`
	NewPassword     string `form:"new_password"     validate:"required,min=8,max=128"`
	Confirm         string `form:"confirm"          validate:"required,eqfield=NewPassword"`
}

// ClientInfo describes where a login came from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type Result struct {
	Session    core.Session
	Email      string
	Token      string
	ExpiresAt  time.Time
	Persistent bool
}

type SessionInfo struct {
	ID        string
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
	Current   bool
}
