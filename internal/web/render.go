// AngelaMos | 2026
// render.go

package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	PageIndex       = "index.html"
	PageLogin       = "login.html"
	PageRegister    = "register.html"
	PageProfile     = "profile.html"
	PagePackages    = "packages.html"
	PageAddPackage  = "add_package.html"
	PageEditPackage = "edit_package.html"
	PageError       = "error.html"
)

var pages = []string{
	PageIndex,
	PageLogin,
	PageRegister,
	PageProfile,
	PagePackages,
	PageAddPackage,
	PageEditPackage,
	PageError,
}

type Page struct {
	Title         string
	Authenticated bool
	Flashes       []Flash
	Data          any
}

type Renderer struct {
	templates map[string]*template.Template
	appName   string
}

func NewRenderer(appName string) (*Renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"stars": func(n int) []struct{} {
			return make([]struct{}, n)
		},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("base.html").
			Funcs(funcs).
			ParseFS(templatesFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	return &Renderer{templates: templates, appName: appName}, nil
}

// Render writes page with any flashes queued by a previous response placed
// ahead of the ones in p.
func (rn *Renderer) Render(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	page string,
	p Page,
) {
	tmpl, ok := rn.templates[page]
	if !ok {
		slog.Error("unknown template", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.Flashes = append(PopFlashes(w, r), p.Flashes...)

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "base.html", struct {
		Page
		AppName string
	}{Page: p, AppName: rn.appName})
	if err != nil {
		slog.Error("render template", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_, _ = buf.WriteTo(w)
}

func (rn *Renderer) Error(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	authenticated bool,
) {
	rn.Render(w, r, status, PageError, Page{
		Title:         http.StatusText(status),
		Authenticated: authenticated,
		Data: map[string]any{
			"Status": status,
			"Text":   http.StatusText(status),
		},
	})
}
