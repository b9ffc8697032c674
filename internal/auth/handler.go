// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
	"github.com/carterperez-dev/freelancer-packages/internal/middleware"
	"github.com/carterperez-dev/freelancer-packages/internal/web"
)

const (
	msgAlreadyLoggedIn    = "Already logged in!  Redirecting to your User Profile page..."
	msgBadCredentials     = "ERROR! Incorrect login credentials."
	msgGoodbye            = "Goodbye!"
	msgPasswordChanged    = "Your password was changed!"
	msgBadCurrentPassword = "ERROR! Current password is incorrect."
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	service   *Service
	renderer  *web.Renderer
	cookie    CookieConfig
	validator *validator.Validate
}

func NewHandler(
	service *Service,
	renderer *web.Renderer,
	cookie CookieConfig,
) *Handler {
	return &Handler{
		service:   service,
		renderer:  renderer,
		cookie:    cookie,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the login and registration pages. limiter guards the
// credential-accepting POSTs.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter func(http.Handler) http.Handler,
) {
	r.Get("/login", h.LoginPage)
	r.Get("/register", h.RegisterPage)
	r.Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter)
		}
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})

	r.With(middleware.RequireSession).Post("/profile/password", h.ChangePassword)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r.Context()).IsAuthenticated() {
		web.Redirect(w, r, "/profile", web.FlashInfo, msgAlreadyLoggedIn)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, web.PageLogin, web.Page{
		Title: "Log In",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session.IsAuthenticated() {
		web.Redirect(w, r, "/profile", web.FlashInfo, msgAlreadyLoggedIn)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, LoginRequest{})
		return
	}

	req := LoginRequest{
		Email:      strings.TrimSpace(r.PostFormValue("email")),
		Password:   r.PostFormValue("password"),
		RememberMe: isChecked(r.PostFormValue("remember_me")),
	}

	if err := h.validator.Struct(req); err != nil {
		h.renderLoginError(w, r, req)
		return
	}

	res, err := h.service.Login(r.Context(), session, req, clientInfo(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyAuthenticated):
			web.Redirect(w, r, "/profile", web.FlashInfo, msgAlreadyLoggedIn)
		case errors.Is(err, ErrInvalidCredentials):
			h.renderLoginError(w, r, req)
		default:
			slog.ErrorContext(r.Context(), "login failed", "error", err)
			h.renderer.Error(w, r, http.StatusInternalServerError, false)
		}
		return
	}

	h.setSessionCookie(w, res)
	web.Redirect(
		w,
		r,
		"/packages/",
		web.FlashInfo,
		fmt.Sprintf("Thank you for logging in, %s!", res.Email),
	)
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r.Context()).IsAuthenticated() {
		web.Redirect(w, r, "/profile", web.FlashInfo, msgAlreadyLoggedIn)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, web.PageRegister, web.Page{
		Title: "Register",
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session.IsAuthenticated() {
		web.Redirect(w, r, "/profile", web.FlashInfo, msgAlreadyLoggedIn)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderRegisterError(w, r, RegisterRequest{}, "invalid form submission")
		return
	}

	req := RegisterRequest{
		FullName: strings.TrimSpace(r.PostFormValue("full_name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}

	if err := h.validator.Struct(req); err != nil {
		h.renderRegisterError(w, r, req, core.FormatValidationError(err))
		return
	}

	res, err := h.service.Register(r.Context(), session, req, clientInfo(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyAuthenticated):
			web.Redirect(w, r, "/profile", web.FlashInfo, msgAlreadyLoggedIn)
		case errors.Is(err, ErrEmailExists):
			h.renderRegisterError(w, r, req, fmt.Sprintf(
				"ERROR! Email (%s) already exists in the database.",
				req.Email,
			))
		default:
			slog.ErrorContext(r.Context(), "registration failed", "error", err)
			h.renderer.Error(w, r, http.StatusInternalServerError, false)
		}
		return
	}

	slog.InfoContext(r.Context(), "account registered",
		"account_id", res.Session.AccountID,
	)

	h.setSessionCookie(w, res)
	web.Redirect(
		w,
		r,
		"/packages/",
		web.FlashInfo,
		fmt.Sprintf("Thank you for registering, %s!", res.Email),
	)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	if err := h.service.Logout(r.Context(), session); err != nil {
		slog.WarnContext(r.Context(), "logout failed", "error", err)
	}

	h.clearSessionCookie(w)
	web.Redirect(w, r, "/", web.FlashInfo, msgGoodbye)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	if err := r.ParseForm(); err != nil {
		web.Redirect(w, r, "/profile", web.FlashError, "invalid form submission")
		return
	}

	req := ChangePasswordRequest{
		CurrentPassword: r.PostFormValue("current_password"),
		NewPassword:     r.PostFormValue("new_password"),
		Confirm:         r.PostFormValue("confirm"),
	}

	if err := h.validator.Struct(req); err != nil {
		web.Redirect(w, r, "/profile", web.FlashError, core.FormatValidationError(err))
		return
	}

	res, err := h.service.ChangePassword(r.Context(), session, req, clientInfo(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			web.Redirect(w, r, "/profile", web.FlashError, msgBadCurrentPassword)
		case errors.Is(err, core.ErrUnauthenticated):
			web.Redirect(w, r, "/login", web.FlashInfo, middleware.LoginRequiredMessage)
		default:
			slog.ErrorContext(r.Context(), "password change failed", "error", err)
			h.renderer.Error(w, r, http.StatusInternalServerError, true)
		}
		return
	}

	h.setSessionCookie(w, res)
	web.Redirect(w, r, "/profile", web.FlashInfo, msgPasswordChanged)
}

func (h *Handler) renderLoginError(
	w http.ResponseWriter,
	r *http.Request,
	req LoginRequest,
) {
	h.renderer.Render(w, r, http.StatusOK, web.PageLogin, web.Page{
		Title:   "Log In",
		Flashes: []web.Flash{{Category: web.FlashError, Message: msgBadCredentials}},
		Data:    req,
	})
}

func (h *Handler) renderRegisterError(
	w http.ResponseWriter,
	r *http.Request,
	req RegisterRequest,
	message string,
) {
	h.renderer.Render(w, r, http.StatusOK, web.PageRegister, web.Page{
		Title:   "Register",
		Flashes: []web.Flash{{Category: web.FlashError, Message: message}},
		Data:    req,
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, res *Result) {
	cookie := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    res.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if res.Persistent {
		cookie.Expires = res.ExpiresAt
		cookie.MaxAge = int(time.Until(res.ExpiresAt).Seconds())
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "", "0", "false", "off", "n":
		return false
	default:
		return true
	}
}

func clientInfo(r *http.Request) ClientInfo {
	return ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: middleware.ClientIP(r),
	}
}
