package auth

import (
	"net/http"
	"time"
)

// CookieSettings describes the optional session cookie set at login
type CookieSettings struct {
	Enabled bool
	Name    string
	Secure  bool
	MaxAge  time.Duration
}

// SetSessionCookie stores token in an httpOnly cookie when cookies are enabled
func SetSessionCookie(w http.ResponseWriter, s CookieSettings, token string) {
	if !s.Enabled {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter, s CookieSettings) {
	if !s.Enabled {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
