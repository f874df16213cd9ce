package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

const userColumns = `id, name, email, password_hash, api_key, current_plan,
	plan_start_date, plan_end_date, plan_version, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var (
		u          models.User
		tier       string
		start, end sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.APIKey, &tier,
		&start, &end, &u.PlanVersion, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.CurrentPlan = plan.Tier(tier)
	if start.Valid {
		u.PlanStartDate = &start.Time
	}
	if end.Valid {
		u.PlanEndDate = &end.Time
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его с заполненными ID и датами.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tier := user.CurrentPlan
	if tier == "" {
		tier = plan.FreeTrial
	}
	query := `INSERT INTO users (name, email, password_hash, api_key, current_plan)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.APIKey, string(tier)))
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по электронной почте.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "storage.GetUserByEmail", `email = $1`, email)
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "storage.GetUserByID", `id = $1`, id)
}

// GetUserByAPIKey возвращает пользователя по ключу десктоп-клиента.
func (s *Storage) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	return s.getUser(ctx, "storage.GetUserByAPIKey", `api_key = $1`, apiKey)
}

func (s *Storage) getUser(ctx context.Context, op, where string, arg any) (*models.User, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdatePlan записывает тариф, если версия записи совпадает с ожидаемой.
// При несовпадении возвращает ErrPlanConflict, запись не меняется.
func (s *Storage) UpdatePlan(ctx context.Context, userID int64, tier plan.Tier,
	start, end *time.Time, expectedVersion int64) (*models.User, error) {
	const op = "storage.UpdatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET current_plan = $1, plan_start_date = $2, plan_end_date = $3,
			      plan_version = plan_version + 1, updated_at = NOW()
			  WHERE id = $4 AND plan_version = $5
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, string(tier), start, end, userID, expectedVersion))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	if err = s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).
		Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil, fmt.Errorf("%s: %w", op, ErrPlanConflict)
}

// FindPlansExpiringBetween возвращает пользователей, чей тариф заканчивается в [from, to).
func (s *Storage) FindPlansExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.FindPlansExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE plan_end_date >= $1 AND plan_end_date < $2
			  ORDER BY plan_end_date`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
