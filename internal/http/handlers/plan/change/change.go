// Package change реализует смену тарифа владельцем сессии.
//
// Решение принимает движок тарифов: отказ возвращается как 400 с текстом причины,
// конкурентная запись как 409.
package change

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
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

// Request запрошенный тариф.
type Request struct {
	Plan string `json:"plan" validate:"required"`
}

// Response ответ с обновлённым пользователем.
type Response struct {
	response.Response
	User models.UserView `json:"user"`
}

// Service описывает смену тарифа.
type Service interface {
	ChangePlan(ctx context.Context, userID int64, requested plan.Tier) (*models.User, plan.Result, error)
}

// Handler обрабатывает POST /api/plan/change.
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
	const op = "handlers.plan.change"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Write(w, r, http.StatusBadRequest, response.Fail("Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Write(w, r, http.StatusBadRequest, response.Fail("Plan is required"))
		return
	}

	updated, res, err := h.service.ChangePlan(r.Context(), user.ID, plan.Tier(req.Plan))
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to change plan")
		return
	}

	log.Info("plan changed", slog.Int64("user_id", user.ID), slog.String("plan", res.Tier.String()))
	response.Write(w, r, http.StatusOK, Response{
		Response: response.OK(res.Message),
		User:     updated.View(),
	})
}
