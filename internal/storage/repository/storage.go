// Package repository реализует хранилище на PostgreSQL: пользователи с
// тарифами, платежи и отзывы. Все методы принимают контекст и проверяют
// его отмену до обращения к базе.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки хранилища. Сравниваются через errors.Is.
var (
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrPlanConflict     = errors.New("plan was modified concurrently")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentFinalized = errors.New("payment already finalized")
	ErrOrderExists      = errors.New("order already exists")
	ErrReviewNotFound   = errors.New("review not found")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New открывает пул соединений и проверяет доступность базы.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Ping проверяет соединение, используется health-эндпоинтом.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.Ping"
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: required table users missing")
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

type scanner interface {
	Scan(dest ...any) error
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
