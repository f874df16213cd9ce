// Package logout реализует выход: сессионная cookie удаляется, токен не отзывается.
package logout

import (
	"net/http"

	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
)

// Handler обрабатывает POST /api/auth/logout.
type Handler struct {
	session config.JWTToken
}

// New создает новый экземпляр Handler.
func New(session config.JWTToken) *Handler {
	return &Handler{session: session}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middlewarectx.ClearSessionCookie(w, h.session.CookieName, h.session.CookieSecure)
	response.Write(w, r, http.StatusOK, response.OK("Logged out successfully"))
}
