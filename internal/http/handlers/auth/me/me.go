// Package me отдаёт профиль владельца сессии вместе с API-ключом.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
)

// Response ответ с профилем.
type Response struct {
	response.Response
	User models.UserView `json:"user"`
}

// Service описывает чтение профиля.
type Service interface {
	Me(ctx context.Context, userID int64) (models.UserView, error)
}

// Handler обрабатывает GET /api/auth/me.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
		return
	}

	view, err := h.service.Me(r.Context(), user.ID)
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to get user data")
		return
	}
	response.Write(w, r, http.StatusOK, Response{
		Response: response.Response{Success: true},
		User:     view,
	})
}
