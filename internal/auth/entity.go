// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// SessionRecord is the server side half of a login. The cookie token only
// names it; deleting the record ends the session.
type SessionRecord struct {
	ID        string
	AccountID int64
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *SessionRecord) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}
