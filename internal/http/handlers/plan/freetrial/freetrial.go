// Package freetrial реализует оформление пробного периода через движок тарифов.
package freetrial

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

// Response ответ с обновлённым пользователем.
type Response struct {
	response.Response
	User models.UserView `json:"user"`
}

// Service описывает оформление пробного периода.
type Service interface {
	ActivateFreeTrial(ctx context.Context, userID int64) (*models.User, plan.Result, error)
}

// Handler обрабатывает POST /api/activate-free-trial.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.freetrial"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
		return
	}

	updated, res, err := h.service.ActivateFreeTrial(r.Context(), user.ID)
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to activate free trial")
		return
	}
	response.Write(w, r, http.StatusOK, Response{
		Response: response.OK(res.Message),
		User:     updated.View(),
	})
}
