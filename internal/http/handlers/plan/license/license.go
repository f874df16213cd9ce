// Package license реализует активацию купленного тарифа десктоп-клиентом по API-ключу.
package license

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

// APIKeyHeader заголовок с API-ключом пользователя.
const APIKeyHeader = "X-API-Key"

// Response ответ с окном действия тарифа.
type Response struct {
	response.Response
	User models.UserView `json:"user"`
}

// Service описывает активацию лицензии.
type Service interface {
	ActivateLicense(ctx context.Context, apiKey string) (*models.User, plan.Result, error)
}

// Handler обрабатывает POST /api/license/activate.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.license"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
	if key == "" {
		response.Write(w, r, http.StatusUnauthorized, response.Fail("API key required"))
		return
	}

	updated, res, err := h.service.ActivateLicense(r.Context(), key)
	if errors.Is(err, repository.ErrUserNotFound) {
		log.Info("unknown api key")
		response.Write(w, r, http.StatusUnauthorized, response.Fail("Invalid API key"))
		return
	}
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to activate license")
		return
	}

	log.Info("license activated", slog.Int64("user_id", updated.ID), slog.String("plan", res.Tier.String()))
	response.Write(w, r, http.StatusOK, Response{
		Response: response.OK(res.Message),
		User:     updated.View(),
	})
}
