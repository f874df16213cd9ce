// Package reviewmine отдаёт последний отзыв владельца сессии вместе с его статусом модерации.
package reviewmine

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
)

// Response последний отзыв пользователя.
type Response struct {
	response.Response
	Review *models.Review `json:"review"`
}

// Service описывает чтение отзыва пользователя.
type Service interface {
	Latest(ctx context.Context, userID int64) (*models.Review, error)
}

// Handler обрабатывает GET /api/my-review.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.mine"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
		return
	}

	review, err := h.service.Latest(r.Context(), user.ID)
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to get review")
		return
	}
	response.Write(w, r, http.StatusOK, Response{
		Response: response.Response{Success: true},
		Review:   review,
	})
}
