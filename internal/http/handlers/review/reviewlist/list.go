// Package reviewlist отдаёт списки отзывов: опубликованные для сайта и
// ожидающие модерации для администратора.
package reviewlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
)

// Response список отзывов.
type Response struct {
	response.Response
	Reviews []*models.Review `json:"reviews"`
}

// ListFunc источник списка.
type ListFunc func(ctx context.Context) ([]*models.Review, error)

// Handler обрабатывает GET /api/get-reviews и GET /api/get-pending-reviews.
type Handler struct {
	log  *slog.Logger
	list ListFunc
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, list ListFunc) *Handler {
	return &Handler{log: log, list: list}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reviews, err := h.list(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err, "Internal server error")
		return
	}
	if reviews == nil {
		reviews = []*models.Review{}
	}
	response.Write(w, r, http.StatusOK, Response{
		Response: response.Response{Success: true},
		Reviews:  reviews,
	})
}
