// Package services содержит приём отзывов и их модерацию.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/reflect-accounts/internal/cache"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
)

// Лимиты выдачи отзывов.
const (
	ApprovedLimit  = 3
	PendingLimit   = 3
	minFeedbackLen = 10
)

// ValidationError отзыв не прошёл проверку, сообщение отдаётся клиенту как есть.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Сообщения валидации.
var (
	ErrFieldsRequired = &ValidationError{Message: "All fields are required"}
	ErrRatingRange    = &ValidationError{Message: "Rating must be between 1 and 5"}
	ErrFeedbackShort  = &ValidationError{Message: "Feedback must be at least 10 characters long"}
)

// Repository операции хранилища с отзывами.
type Repository interface {
	CreateReview(ctx context.Context, r models.Review) (*models.Review, error)
	ListReviewsByStatus(ctx context.Context, status models.ReviewStatus, limit int) ([]*models.Review, error)
	SetReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) (*models.Review, error)
	GetLatestReviewByUser(ctx context.Context, userID int64) (*models.Review, error)
}

// Cache кеш списка одобренных отзывов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// ReviewService принимает и модерирует отзывы.
type ReviewService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewReviewService создает новый экземпляр ReviewService. cache может быть nil.
func NewReviewService(repo Repository, cache Cache, log *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Validate проверяет поля отзыва в порядке, в котором о них сообщается клиенту.
func Validate(in models.DummyReview) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.DeviceModel) == "" ||
		in.Rating == 0 || strings.TrimSpace(in.Feedback) == "" {
		return ErrFieldsRequired
	}
	if in.Rating < 1 || in.Rating > 5 {
		return ErrRatingRange
	}
	if utf8.RuneCountInString(in.Feedback) < minFeedbackLen {
		return ErrFeedbackShort
	}
	return nil
}

// AsValidation достаёт ValidationError из цепочки ошибок.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Submit сохраняет отзыв пользователя на модерацию.
func (s *ReviewService) Submit(ctx context.Context, userID int64, in models.DummyReview) (*models.Review, error) {
	const op = "services.Submit"

	if err := Validate(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r, err := s.repo.CreateReview(ctx, models.Review{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		DeviceModel: strings.TrimSpace(in.DeviceModel),
		Rating:      in.Rating,
		Feedback:    in.Feedback,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("review submitted", slog.String("op", op), slog.Int64("user_id", userID), slog.Int64("review_id", r.ID))
	return r, nil
}

// ListApproved возвращает последние одобренные отзывы, сначала из кеша.
func (s *ReviewService) ListApproved(ctx context.Context) ([]*models.Review, error) {
	const op = "services.ListApproved"
	log := s.log.With(slog.String("op", op))

	if s.cache != nil {
		var cached []*models.Review
		found, err := s.cache.Get(ctx, cache.ApprovedReviewsKey, &cached)
		if err != nil {
			log.Warn("failed to read approved reviews from cache", sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	reviews, err := s.repo.ListReviewsByStatus(ctx, models.ReviewApproved, ApprovedLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err = s.cache.Set(ctx, cache.ApprovedReviewsKey, reviews, cache.ReviewsTTL); err != nil {
			log.Warn("failed to cache approved reviews", sl.Err(err))
		}
	}
	return reviews, nil
}

// ListPending возвращает последние отзывы, ожидающие модерации.
func (s *ReviewService) ListPending(ctx context.Context) ([]*models.Review, error) {
	const op = "services.ListPending"
	reviews, err := s.repo.ListReviewsByStatus(ctx, models.ReviewPending, PendingLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

// Approve публикует отзыв.
func (s *ReviewService) Approve(ctx context.Context, id int64) (*models.Review, error) {
	return s.moderate(ctx, "services.Approve", id, models.ReviewApproved)
}

// Reject отклоняет отзыв.
func (s *ReviewService) Reject(ctx context.Context, id int64) (*models.Review, error) {
	return s.moderate(ctx, "services.Reject", id, models.ReviewRejected)
}

func (s *ReviewService) moderate(ctx context.Context, op string, id int64, status models.ReviewStatus) (*models.Review, error) {
	r, err := s.repo.SetReviewStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err = s.cache.Invalidate(ctx, cache.ApprovedReviewsKey); err != nil {
			s.log.Warn("failed to invalidate approved reviews", slog.String("op", op), sl.Err(err))
		}
	}
	s.log.Info("review moderated", slog.String("op", op), slog.Int64("review_id", id), slog.String("status", string(status)))
	return r, nil
}

// Latest возвращает последний отзыв пользователя.
func (s *ReviewService) Latest(ctx context.Context, userID int64) (*models.Review, error) {
	const op = "services.Latest"
	r, err := s.repo.GetLatestReviewByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}
