// AngelaMos | 2026
// handler.go

package freelancer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
	"github.com/carterperez-dev/freelancer-packages/internal/middleware"
	"github.com/carterperez-dev/freelancer-packages/internal/web"
)

type Handler struct {
	service  *Service
	counter  PackageCounter
	sessions SessionLister
	renderer *web.Renderer
}

func NewHandler(
	service *Service,
	counter PackageCounter,
	sessions SessionLister,
	renderer *web.Renderer,
) *Handler {
	return &Handler{
		service:  service,
		counter:  counter,
		sessions: sessions,
		renderer: renderer,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireSession).Get("/profile", h.Profile)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	profile, err := h.service.Profile(r.Context(), session, h.counter, h.sessions)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnauthenticated), errors.Is(err, core.ErrNotFound):
			web.Redirect(w, r, "/login", web.FlashInfo, middleware.LoginRequiredMessage)
		default:
			slog.ErrorContext(r.Context(), "load profile", "error", err)
			h.renderer.Error(w, r, http.StatusInternalServerError, true)
		}
		return
	}

	h.renderer.Render(w, r, http.StatusOK, web.PageProfile, web.Page{
		Title:         "Profile",
		Authenticated: true,
		Data:          profile,
	})
}
