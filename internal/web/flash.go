// AngelaMos | 2026
// flash.go

package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "flash"

const (
	FlashInfo  = "info"
	FlashError = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// SetFlash queues a message for the next page render, typically across a
// redirect.
func SetFlash(w http.ResponseWriter, category, message string) {
	raw, err := json.Marshal([]Flash{{Category: category, Message: message}})
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns the queued messages and clears them.
func PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}

	return flashes
}

// Redirect queues a flash and sends a 303 to target.
func Redirect(
	w http.ResponseWriter,
	r *http.Request,
	target, category, message string,
) {
	if message != "" {
		SetFlash(w, category, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
