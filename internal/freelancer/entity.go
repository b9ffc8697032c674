// AngelaMos | 2026
// entity.go

package freelancer

import (
	"time"
)

type Freelancer struct {
	ID           int64     `db:"id"`
	FullName     string    `db:"full_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
