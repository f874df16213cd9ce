// Package middlewarectx содержит HTTP middleware: проверку сессии по cookie,
// доступ администратора по ключу и ограничение частоты запросов.
//
// SessionMiddleware берёт токен из cookie auth_token (или из заголовка
// Authorization: Bearer), проверяет его и кладёт владельца в контекст запроса.
// При ошибке проверки возвращает 401.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/jwt"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User ключ владельца сессии в контексте.
const User Key = "user"

// DefaultCookieName имя сессионной cookie.
const DefaultCookieName = "auth_token"

// Authenticator проверяет токен и возвращает его владельца.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserFromContext возвращает владельца сессии, положенного SessionMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(User).(*models.User)
	return u, ok && u != nil
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, User, u)
}

// TokenFromRequest достаёт токен из cookie, затем из заголовка Authorization.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// SessionMiddleware возвращает middleware, который требует действующую сессию.
func SessionMiddleware(auth Authenticator, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := TokenFromRequest(r, cookieName)
			if token == "" {
				log.Info("missing session token")
				response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, jwt.ErrInvalidToken):
				log.Info("invalid or expired token")
				response.Write(w, r, http.StatusUnauthorized, response.Fail(response.MsgInvalidToken))
				return
			case errors.Is(err, repository.ErrUserNotFound):
				log.Info("token owner not found")
				response.Write(w, r, http.StatusNotFound, response.Fail(response.MsgUserNotFound))
				return
			default:
				log.Error("failed to authenticate", sl.Err(err))
				response.Write(w, r, http.StatusInternalServerError, response.Internal("Internal server error", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
