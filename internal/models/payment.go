package models

import (
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

// PaymentStatus статус платежа.
type PaymentStatus string

// Статусы платежа. completed и failed терминальные.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal сообщает, что статус больше не меняется.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// Payment запись о покупке тарифа через платёжный шлюз.
type Payment struct {
	ID        int64
	UserID    int64
	OrderID   string  // Идентификатор заказа у провайдера
	PaymentID *string // Идентификатор платежа, появляется после подтверждения
	Amount    float64
	Currency  string
	Plan      plan.Tier
	Status    PaymentStatus
	CreatedAt time.Time
}
