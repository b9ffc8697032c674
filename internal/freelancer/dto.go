// AngelaMos | 2026
// dto.go

package freelancer

import (
	"time"

	"github.com/carterperez-dev/freelancer-packages/internal/auth"
)

type Profile struct {
	FullName     string
	Email        string
	CreatedAt    time.Time
	PackageCount int
	Sessions     []auth.SessionInfo
}

func toAccountInfo(f *Freelancer) *auth.AccountInfo {
	return &auth.AccountInfo{
		ID:           f.ID,
		FullName:     f.FullName,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
	}
}
