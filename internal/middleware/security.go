// AngelaMos | 2026
// security.go

package middleware

import (
	"net/http"
)

func SecurityHeaders(isProduction bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set(
				"Content-Security-Policy",
				"default-src 'self'; form-action 'self'; frame-ancestors 'none'",
			)

			if isProduction {
				h.Set(
					"Strict-Transport-Security",
					"max-age=63072000; includeSubDomains",
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}
