// Package signup реализует HTTP-обработчик регистрации пользователя.
//
// Новый пользователь получает тариф Free Trial и API-ключ, в ответ выставляется
// сессионная cookie.
package signup

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
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/password"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
)

// Request входные данные для регистрации.
type Request struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// Response ответ с профилем нового пользователя.
type Response struct {
	response.Response
	User models.UserView `json:"user"`
}

// Service описывает регистрацию.
type Service interface {
	Signup(ctx context.Context, name, email, password string) (*models.User, string, error)
}

// Handler обрабатывает POST /api/auth/signup.
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
	const op = "handlers.auth.signup"

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
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			response.Write(w, r, http.StatusBadRequest, response.ValidationError(vErrs))
			return
		}
		response.Write(w, r, http.StatusBadRequest, response.Fail("Invalid request body"))
		return
	}
	// validator считает руны, bcrypt ограничен байтами
	if len(req.Password) > password.MaxLength {
		log.Info("password too long", slog.Int("bytes", len(req.Password)))
		response.Write(w, r, http.StatusBadRequest, response.Fail(response.MsgPasswordTooLong))
		return
	}

	user, token, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.WriteError(w, r, log, err, "Failed to create account")
		return
	}

	middlewarectx.SetSessionCookie(w, h.session.CookieName, token, h.session.TokenTTL, h.session.CookieSecure)
	log.Info("user signed up", slog.Int64("user_id", user.ID))
	response.Write(w, r, http.StatusCreated, Response{
		Response: response.OK("Account created successfully"),
		User:     user.Profile(),
	})
}
