// Package reviewcreate принимает отзыв владельца сессии на модерацию.
package reviewcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	services "github.com/magabrotheeeer/reflect-accounts/internal/services/review"
)

// Response сохранённый отзыв.
type Response struct {
	response.Response
	ReviewID int64          `json:"reviewId"`
	Review   *models.Review `json:"review"`
}

// Service описывает приём отзыва.
type Service interface {
	Submit(ctx context.Context, userID int64, in models.DummyReview) (*models.Review, error)
}

// Handler обрабатывает POST /api/create-review.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.review.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
		return
	}

	var req models.DummyReview
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Write(w, r, http.StatusBadRequest, response.Fail("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Write(w, r, http.StatusBadRequest, response.Fail(services.ErrFieldsRequired.Message))
		return
	}

	review, err := h.service.Submit(r.Context(), user.ID, req)
	if v, ok := services.AsValidation(err); ok {
		log.Info("review rejected by validation", slog.String("reason", v.Message))
		response.Write(w, r, http.StatusBadRequest, response.Fail(v.Message))
		return
	}
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to submit review")
		return
	}

	response.Write(w, r, http.StatusCreated, Response{
		Response: response.OK("Review submitted successfully! It will be reviewed before publishing."),
		ReviewID: review.ID,
		Review:   review,
	})
}
