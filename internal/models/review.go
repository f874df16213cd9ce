package models

import "time"

// ReviewStatus статус модерации отзыва.
type ReviewStatus string

// Статусы модерации.
const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review отзыв пользователя.
type Review struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"-"`
	Name        string       `json:"name"`
	DeviceModel string       `json:"deviceModel"`
	Rating      int          `json:"rating"`
	Feedback    string       `json:"feedback"`
	Status      ReviewStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"-"`
}

// DummyReview используется для приёма отзыва из JSON-запроса до валидации.
type DummyReview struct {
	Name        string `json:"name" validate:"required"`
	DeviceModel string `json:"deviceModel" validate:"required"`
	Rating      int    `json:"rating" validate:"required"`
	Feedback    string `json:"feedback" validate:"required"`
}
