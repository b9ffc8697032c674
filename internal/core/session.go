// AngelaMos | 2026
// session.go

package core

import (
	"fmt"
)

// Session is the per-request authentication state. The zero value is the
// anonymous session.
type Session struct {
	AccountID int64
	SessionID string
}

func Anonymous() Session {
	return Session{}
}

func (s Session) IsAuthenticated() bool {
	return s.AccountID > 0 && s.SessionID != ""
}

func RequireAuthenticated(s Session) error {
	if !s.IsAuthenticated() {
		return fmt.Errorf("require session: %w", ErrUnauthenticated)
	}
	return nil
}
