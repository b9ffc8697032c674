// AngelaMos | 2026
// session.go

package middleware

import (
	"context"
	"net/http"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
	"github.com/carterperez-dev/freelancer-packages/internal/web"
)

const SessionKey contextKey = "session"

const LoginRequiredMessage = "Please log in to access this page."

// SessionResolver turns a cookie value into a session. Any failure must
// resolve to the anonymous session.
type SessionResolver interface {
	Current(ctx context.Context, token string) core.Session
}

func LoadSession(
	resolver SessionResolver,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := core.Anonymous()

			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				session = resolver.Current(r.Context(), cookie.Value)
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireSession redirects anonymous callers to the login page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := core.RequireAuthenticated(GetSession(r.Context())); err != nil {
			web.Redirect(w, r, "/login", web.FlashInfo, LoginRequiredMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, s core.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

func GetSession(ctx context.Context) core.Session {
	if s, ok := ctx.Value(SessionKey).(core.Session); ok {
		return s
	}
	return core.Anonymous()
}
