package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

func TestStorage_Payments(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	newOrder := func(t *testing.T, userID int64, tier plan.Tier) string {
		t.Helper()
		price, _ := tier.Price()
		orderID := "order_" + uuid.NewString()
		_, err := storage.CreatePayment(ctx, models.Payment{
			UserID: userID, OrderID: orderID, Amount: float64(price), Plan: tier,
		})
		require.NoError(t, err)
		return orderID
	}
	engine := func(now time.Time) PlanApplier {
		return func(u *models.User, p *models.Payment) (plan.Result, error) {
			return plan.Transition(u.PlanState(), p.Plan, now)
		}
	}

	t.Run("create and read", func(t *testing.T) {
		u := factory.CreateUser(t, "Payer")
		orderID := newOrder(t, u.ID, plan.Pro)

		p, err := storage.GetPaymentByOrderID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, p.Status)
		assert.Equal(t, plan.DefaultCurrency, p.Currency)
		assert.InDelta(t, 499.0, p.Amount, 0.001)
		assert.Nil(t, p.PaymentID)

		_, err = storage.CreatePayment(ctx, models.Payment{UserID: u.ID, OrderID: orderID, Amount: 1, Plan: plan.Pro})
		require.ErrorIs(t, err, ErrOrderExists)

		_, err = storage.GetPaymentByOrderID(ctx, "missing")
		require.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("confirm from free trial", func(t *testing.T) {
		u := factory.CreateUser(t, "Trial")
		orderID := newOrder(t, u.ID, plan.Basic)

		c, err := storage.ConfirmPayment(ctx, u.ID, orderID, "pay_1", engine(time.Now()))
		require.NoError(t, err)
		assert.False(t, c.Replayed)
		assert.Equal(t, plan.Basic, c.User.CurrentPlan)
		assert.Nil(t, c.User.PlanEndDate)
		assert.Equal(t, models.PaymentCompleted, c.Payment.Status)
		require.NotNil(t, c.Payment.PaymentID)
		assert.Equal(t, "pay_1", *c.Payment.PaymentID)
		assert.Equal(t, u.PlanVersion+1, c.User.PlanVersion)
	})

	t.Run("replay is idempotent", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
		u := factory.CreateUser(t, "Replay")
		factory.SetPlan(t, u.ID, plan.Basic, &start, &end)
		orderID := newOrder(t, u.ID, plan.Pro)

		first, err := storage.ConfirmPayment(ctx, u.ID, orderID, "pay_2", engine(time.Now()))
		require.NoError(t, err)
		require.NotNil(t, first.User.PlanEndDate)
		assert.True(t, end.AddDate(0, 0, 30).Equal(*first.User.PlanEndDate))

		second, err := storage.ConfirmPayment(ctx, u.ID, orderID, "pay_2", engine(time.Now()))
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.True(t, first.User.PlanEndDate.Equal(*second.User.PlanEndDate))
		assert.Equal(t, first.User.PlanVersion, second.User.PlanVersion)

		_, err = storage.ConfirmPayment(ctx, u.ID, orderID, "pay_other", engine(time.Now()))
		require.ErrorIs(t, err, ErrPaymentFinalized)
	})

	t.Run("rejection marks payment failed", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 30)
		u := factory.CreateUser(t, "Down")
		factory.SetPlan(t, u.ID, plan.Premium, &start, &end)
		orderID := newOrder(t, u.ID, plan.Basic)

		_, err := storage.ConfirmPayment(ctx, u.ID, orderID, "pay_3", engine(time.Now()))
		rej, ok := plan.AsRejection(err)
		require.True(t, ok)
		assert.Equal(t, plan.ReasonDowngrade, rej.Reason)
		assert.Equal(t, models.PaymentFailed, paymentStatus(t, storage, orderID))

		got, err := storage.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, plan.Premium, got.CurrentPlan)
		assert.True(t, end.Equal(*got.PlanEndDate))
	})

	t.Run("foreign order", func(t *testing.T) {
		owner := factory.CreateUser(t, "Owner")
		other := factory.CreateUser(t, "Other")
		orderID := newOrder(t, owner.ID, plan.Pro)

		_, err := storage.ConfirmPayment(ctx, other.ID, orderID, "pay_4", engine(time.Now()))
		require.ErrorIs(t, err, ErrPaymentNotFound)
		assert.Equal(t, models.PaymentPending, paymentStatus(t, storage, orderID))
	})
}
