package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/reflect-accounts/internal/models"
)

const reviewColumns = `id, user_id, name, device_model, rating, feedback, status, created_at, updated_at`

func scanReview(row scanner) (*models.Review, error) {
	var (
		r      models.Review
		status string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.DeviceModel, &r.Rating, &r.Feedback,
		&status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = models.ReviewStatus(status)
	return &r, nil
}

// CreateReview сохраняет отзыв в статусе pending.
func (s *Storage) CreateReview(ctx context.Context, r models.Review) (*models.Review, error) {
	const op = "storage.CreateReview"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO reviews (user_id, name, device_model, rating, feedback, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + reviewColumns
	created, err := scanReview(s.DB.QueryRowContext(ctx, query,
		r.UserID, r.Name, r.DeviceModel, r.Rating, r.Feedback, string(models.ReviewPending)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ListReviewsByStatus возвращает последние отзывы с заданным статусом, новые первыми.
func (s *Storage) ListReviewsByStatus(ctx context.Context, status models.ReviewStatus, limit int) ([]*models.Review, error) {
	const op = "storage.ListReviewsByStatus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + reviewColumns + `
			  FROM reviews
			  WHERE status = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Review, 0, limit)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetReviewStatus меняет статус модерации отзыва.
func (s *Storage) SetReviewStatus(ctx context.Context, id int64, status models.ReviewStatus) (*models.Review, error) {
	const op = "storage.SetReviewStatus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE reviews SET status = $1, updated_at = NOW()
			  WHERE id = $2
			  RETURNING ` + reviewColumns
	r, err := scanReview(s.DB.QueryRowContext(ctx, query, string(status), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrReviewNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// GetLatestReviewByUser возвращает последний отзыв пользователя.
func (s *Storage) GetLatestReviewByUser(ctx context.Context, userID int64) (*models.Review, error) {
	const op = "storage.GetLatestReviewByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + reviewColumns + `
			  FROM reviews
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	r, err := scanReview(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrReviewNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}
