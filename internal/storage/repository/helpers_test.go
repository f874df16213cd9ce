package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/reflect-accounts/internal/migrations"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя с уникальными email и API-ключом
func (f *TestDataFactory) CreateUser(t *testing.T, name string) *models.User {
	t.Helper()
	key := uuid.NewString()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Name:         name,
		Email:        key + "@example.com",
		PasswordHash: "hashedpassword",
		APIKey:       key[:32],
	})
	require.NoError(t, err)
	return u
}

// SetPlan напрямую записывает тариф пользователя
func (f *TestDataFactory) SetPlan(t *testing.T, userID int64, tier plan.Tier, start, end *time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`UPDATE users
		SET current_plan = $1, plan_start_date = $2, plan_end_date = $3
		WHERE id = $4`, string(tier), start, end, userID)
	require.NoError(t, err)
}

// CreateReview создает отзыв с заданным статусом
func (f *TestDataFactory) CreateReview(t *testing.T, userID int64, status models.ReviewStatus) *models.Review {
	t.Helper()
	r, err := f.storage.CreateReview(context.Background(), models.Review{
		UserID:      userID,
		Name:        "Tester",
		DeviceModel: "Pixel 8",
		Rating:      5,
		Feedback:    "Works great on my phone",
	})
	require.NoError(t, err)
	if status != models.ReviewPending {
		r, err = f.storage.SetReviewStatus(context.Background(), r.ID, status)
		require.NoError(t, err)
	}
	return r
}

// paymentStatus читает статус платежа из БД
func paymentStatus(t *testing.T, s *Storage, orderID string) models.PaymentStatus {
	t.Helper()
	var status string
	err := s.DB.QueryRow(`SELECT status FROM payments WHERE order_id = $1`, orderID).Scan(&status)
	require.NoError(t, err)
	return models.PaymentStatus(status)
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, connStr)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	_, err = migrations.Run(storage.DB, migrationsPath)
	require.NoError(t, err)
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}
