package middlewarectx

import (
	"net/http"
	"time"
)

// SetSessionCookie выставляет сессионную cookie с токеном на время ttl.
func SetSessionCookie(w http.ResponseWriter, name, token string, ttl time.Duration, secure bool) {
	if name == "" {
		name = DefaultCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie удаляет сессионную cookie.
func ClearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	if name == "" {
		name = DefaultCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
