// Package services содержит логику регистрации, входа и проверки сессии.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/cache"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/apikey"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/jwt"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/password"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

// ErrInvalidCredentials неверная пара email и пароль.
var ErrInvalidCredentials = errors.New("Invalid email or password")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ProfileCache кеш профилей для /me.
type ProfileCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// AuthService отвечает за регистрацию, вход и проверку сессионного токена.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	cache    ProfileCache
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, cache ProfileCache, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		cache:    cache,
		log:      log,
	}
}

// NormalizeEmail приводит адрес к каноническому виду.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup создаёт пользователя на тарифе Free Trial с новым API-ключом и выдаёт токен.
func (s *AuthService) Signup(ctx context.Context, name, email, rawPassword string) (*models.User, string, error) {
	const op = "services.Signup"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	key, err := apikey.Generate()
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: hashed,
		APIKey:       key,
		CurrentPlan:  plan.FreeTrial,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// Login проверяет пароль и выдаёт токен. Отсутствие пользователя и неверный
// пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "services.Login"

	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// Authenticate проверяет токен и загружает владельца.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "services.Authenticate"

	userID, ok := s.jwtMaker.Verify(token)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Me возвращает профиль владельца, по возможности из кеша.
func (s *AuthService) Me(ctx context.Context, userID int64) (models.UserView, error) {
	const op = "services.Me"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", userID))
	key := cache.UserKey(userID)

	var view models.UserView
	if s.cache != nil {
		found, err := s.cache.Get(ctx, key, &view)
		if err != nil {
			log.Warn("failed to read profile from cache", sl.Err(err))
		}
		if found {
			return view, nil
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.UserView{}, fmt.Errorf("%s: %w", op, err)
	}
	view = user.Profile()

	if s.cache != nil {
		if err = s.cache.Set(ctx, key, view, cache.UserTTL); err != nil {
			log.Warn("failed to store profile in cache", sl.Err(err))
		}
	}
	return view, nil
}
