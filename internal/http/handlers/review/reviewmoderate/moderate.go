// Package reviewmoderate одобряет или отклоняет отзыв по его идентификатору.
package reviewmoderate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
)

// Request идентификатор отзыва.
type Request struct {
	ReviewID int64 `json:"reviewId"`
}

// Response отзыв после модерации.
type Response struct {
	response.Response
	Review *models.Review `json:"review"`
}

// ModerateFunc меняет статус отзыва.
type ModerateFunc func(ctx context.Context, id int64) (*models.Review, error)

// Handler обрабатывает POST /api/approve-review и POST /api/reject-review.
type Handler struct {
	log      *slog.Logger
	moderate ModerateFunc
	message  string
}

// New создает новый экземпляр Handler. message возвращается клиенту при успехе.
func New(log *slog.Logger, moderate ModerateFunc, message string) *Handler {
	return &Handler{log: log, moderate: moderate, message: message}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.moderate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Write(w, r, http.StatusBadRequest, response.Fail("Invalid request body"))
		return
	}
	if req.ReviewID <= 0 {
		response.Write(w, r, http.StatusBadRequest, response.Fail("Review ID is required"))
		return
	}

	review, err := h.moderate(r.Context(), req.ReviewID)
	if err != nil {
		response.WriteError(w, r, log, err, "Internal server error")
		return
	}
	response.Write(w, r, http.StatusOK, Response{
		Response: response.OK(h.message),
		Review:   review,
	})
}
