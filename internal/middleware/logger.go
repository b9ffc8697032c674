// AngelaMos | 2026
// logger.go

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration", time.Since(start),
					"bytes", ww.BytesWritten(),
					"request_id", GetRequestID(r.Context()),
				}
				if traceID := core.TraceIDFromContext(r.Context()); traceID != "" {
					attrs = append(attrs, "trace_id", traceID)
				}
				if s := GetSession(r.Context()); s.IsAuthenticated() {
					attrs = append(attrs, "account_id", s.AccountID)
				}

				switch {
				case status >= http.StatusInternalServerError:
					logger.Error("request", attrs...)
				case status >= http.StatusBadRequest:
					logger.Warn("request", attrs...)
				default:
					logger.Info("request", attrs...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
					)
					http.Error(
						w,
						http.StatusText(http.StatusInternalServerError),
						http.StatusInternalServerError,
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
