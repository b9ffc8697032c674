// AngelaMos | 2026
// handler.go

package packages

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
	"github.com/carterperez-dev/freelancer-packages/internal/middleware"
	"github.com/carterperez-dev/freelancer-packages/internal/web"
)

const msgBadPackageData = "Error with package data submitted!"

type Handler struct {
	service  *Service
	renderer *web.Renderer
}

func NewHandler(service *Service, renderer *web.Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)

	r.Route("/packages", func(r chi.Router) {
		r.Use(middleware.RequireSession)

		r.Get("/", h.List)
		r.Get("/add", h.AddPage)
		r.Post("/add", h.Add)
		r.Get("/{id}/edit", h.EditPage)
		r.Post("/{id}/edit", h.Edit)
		r.Get("/{id}/delete", h.Delete)
	})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/packages/", http.StatusSeeOther)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, web.PageIndex, web.Page{})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.service.List(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, web.PagePackages, web.Page{
		Title:         "Packages",
		Authenticated: true,
		Data:          pkgs,
	})
}

func (h *Handler) AddPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, web.PageAddPackage, web.Page{
		Title:         "Add Package",
		Authenticated: true,
	})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAddError(w, r, AddRequest{})
		return
	}

	req := AddRequest{
		Name:     r.PostFormValue("package_name"),
		Category: r.PostFormValue("category"),
		Rating:   r.PostFormValue("rating"),
	}

	p, err := h.service.Add(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			h.renderAddError(w, r, req)
			return
		}
		h.handleError(w, r, err)
		return
	}

	web.Redirect(w, r, "/packages/", web.FlashInfo,
		fmt.Sprintf("Added new package (%s)!", p.Name))
}

func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(r)
	if !ok {
		h.renderer.Error(w, r, http.StatusNotFound, true)
		return
	}

	p, err := h.service.Get(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.renderEdit(w, r, p, nil)
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(r)
	if !ok {
		h.renderer.Error(w, r, http.StatusNotFound, true)
		return
	}

	session := middleware.GetSession(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderer.Error(w, r, http.StatusBadRequest, true)
		return
	}

	req := EditRequest{
		Name:     r.PostFormValue("package_name"),
		Category: r.PostFormValue("category"),
		Rating:   r.PostFormValue("rating"),
	}

	p, err := h.service.Edit(r.Context(), session, id, req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			current, getErr := h.service.Get(r.Context(), session, id)
			if getErr != nil {
				h.handleError(w, r, getErr)
				return
			}
			h.renderEdit(w, r, current, []web.Flash{{
				Category: web.FlashError,
				Message:  msgBadPackageData,
			}})
			return
		}
		h.handleError(w, r, err)
		return
	}

	web.Redirect(w, r, "/packages/", web.FlashInfo,
		fmt.Sprintf("Package (%s) was updated!", p.Name))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(r)
	if !ok {
		h.renderer.Error(w, r, http.StatusNotFound, true)
		return
	}

	p, err := h.service.Delete(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	web.Redirect(w, r, "/packages/", web.FlashInfo,
		fmt.Sprintf("Package (%s) was deleted!", p.Name))
}

func (h *Handler) renderAddError(w http.ResponseWriter, r *http.Request, req AddRequest) {
	h.renderer.Render(w, r, http.StatusOK, web.PageAddPackage, web.Page{
		Title:         "Add Package",
		Authenticated: true,
		Flashes:       []web.Flash{{Category: web.FlashError, Message: msgBadPackageData}},
		Data:          req,
	})
}

func (h *Handler) renderEdit(
	w http.ResponseWriter,
	r *http.Request,
	p *Package,
	flashes []web.Flash,
) {
	h.renderer.Render(w, r, http.StatusOK, web.PageEditPackage, web.Page{
		Title:         "Edit Package",
		Authenticated: true,
		Flashes:       flashes,
		Data:          p,
	})
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		web.Redirect(w, r, "/login", web.FlashInfo, middleware.LoginRequiredMessage)
	case errors.Is(err, core.ErrNotFound):
		h.renderer.Error(w, r, http.StatusNotFound, true)
	case errors.Is(err, core.ErrForbidden):
		h.renderer.Error(w, r, http.StatusForbidden, true)
	default:
		slog.ErrorContext(r.Context(), "package request failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, true)
	}
}

// packageID reports false for ids that cannot name a row.
func packageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
