// Package login реализует HTTP-обработчик входа по email и паролю.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	services "github.com/magabrotheeeer/reflect-accounts/internal/services/auth"
)

// Request учетные данные.
type Request struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Response ответ с профилем пользователя.
type Response struct {
	response.Response
	User models.UserView `json:"user"`
}

// Service описывает вход пользователя.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

// Handler обрабатывает POST /api/auth/login.
type Handler struct {
	log      *slog.Logger
	service  Service
	session  config.JWTToken
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, session config.JWTToken) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		session:  session,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Write(w, r, http.StatusBadRequest, response.Fail("Email and password are required"))
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Info("invalid credentials")
		response.Write(w, r, http.StatusUnauthorized, response.Fail(services.ErrInvalidCredentials.Error()))
		return
	}
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to log in")
		return
	}

	middlewarectx.SetSessionCookie(w, h.session.CookieName, token, h.session.TokenTTL, h.session.CookieSecure)
	log.Info("login success", slog.Int64("user_id", user.ID))
	response.Write(w, r, http.StatusOK, Response{
		Response: response.OK("Login successful"),
		User:     user.Profile(),
	})
}
