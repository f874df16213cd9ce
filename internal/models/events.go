package models

import (
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

// PlanChanged сообщение о смене или активации тарифа.
type PlanChanged struct {
	EventID       string     `json:"event_id"`
	UserID        int64      `json:"user_id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Plan          plan.Tier  `json:"plan"`
	PlanStartDate *time.Time `json:"plan_start_date,omitempty"`
	PlanEndDate   *time.Time `json:"plan_end_date,omitempty"`
	Message       string     `json:"message"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// PlanExpiring сообщение о скором окончании тарифа.
type PlanExpiring struct {
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Plan        plan.Tier `json:"plan"`
	PlanEndDate time.Time `json:"plan_end_date"`
}
