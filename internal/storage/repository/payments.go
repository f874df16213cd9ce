package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

const paymentColumns = `id, user_id, order_id, payment_id, amount, currency, plan, status, created_at`

func scanPayment(row scanner) (*models.Payment, error) {
	var (
		p         models.Payment
		paymentID sql.NullString
		tier      string
		status    string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.OrderID, &paymentID, &p.Amount, &p.Currency,
		&tier, &status, &p.CreatedAt); err != nil {
		return nil, err
	}
	if paymentID.Valid {
		p.PaymentID = &paymentID.String
	}
	p.Plan = plan.Tier(tier)
	p.Status = models.PaymentStatus(status)
	return &p, nil
}

// CreatePayment сохраняет платёж в статусе pending и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int64, error) {
	const op = "storage.CreatePayment"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	currency := p.Currency
	if currency == "" {
		currency = plan.DefaultCurrency
	}
	query := `INSERT INTO payments (user_id, order_id, amount, currency, plan, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		p.UserID, p.OrderID, p.Amount, currency, string(p.Plan), string(models.PaymentPending)).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err, "payments_order_id_key") {
			return 0, fmt.Errorf("%s: %w", op, ErrOrderExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPaymentByOrderID возвращает платёж по идентификатору заказа.
func (s *Storage) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByOrderID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// PlanApplier вычисляет новый тариф пользователя для подтверждённого платежа.
// Вызывается внутри транзакции с заблокированными строками платежа и пользователя.
type PlanApplier func(user *models.User, payment *models.Payment) (plan.Result, error)

// Confirmation итог подтверждения платежа.
type Confirmation struct {
	User     *models.User
	Payment  *models.Payment
	Previous plan.Tier // Тариф до подтверждения
	Result   plan.Result
	Replayed bool // Платёж уже был подтверждён этим же paymentID
}

// ConfirmPayment в одной транзакции блокирует платёж и пользователя, применяет
// переход тарифа и помечает платёж завершённым. Повтор с тем же paymentID
// возвращает текущее состояние без изменений. Если apply отклоняет переход,
// транзакция откатывается, а платёж отдельной записью помечается failed.
func (s *Storage) ConfirmPayment(ctx context.Context, userID int64, orderID, paymentID string,
	apply PlanApplier) (*Confirmation, error) {
	const op = "storage.ConfirmPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 AND user_id = $2 FOR UPDATE`,
		orderID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.Status == models.PaymentCompleted && p.PaymentID != nil && *p.PaymentID == paymentID {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Confirmation{User: u, Payment: p, Previous: u.CurrentPlan, Replayed: true}, nil
	}
	if p.Status.Terminal() {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentFinalized)
	}

	res, applyErr := apply(u, p)
	if applyErr != nil {
		_ = tx.Rollback()
		if err = s.markPaymentFailed(ctx, p.ID, paymentID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, errors.Join(applyErr, err))
		}
		return nil, fmt.Errorf("%s: %w", op, applyErr)
	}

	updated, err := scanUser(tx.QueryRowContext(ctx, `UPDATE users
			  SET current_plan = $1, plan_start_date = $2, plan_end_date = $3,
			      plan_version = plan_version + 1, updated_at = NOW()
			  WHERE id = $4
			  RETURNING `+userColumns,
		string(res.Tier), res.Start, res.End, u.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err = scanPayment(tx.QueryRowContext(ctx, `UPDATE payments
			  SET status = $1, payment_id = $2
			  WHERE id = $3
			  RETURNING `+paymentColumns,
		string(models.PaymentCompleted), paymentID, p.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Confirmation{User: updated, Payment: p, Previous: u.CurrentPlan, Result: res}, nil
}

func (s *Storage) markPaymentFailed(ctx context.Context, id int64, paymentID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE payments
			  SET status = $1, payment_id = $2
			  WHERE id = $3 AND status = $4`,
		string(models.PaymentFailed), paymentID, id, string(models.PaymentPending))
	return err
}
