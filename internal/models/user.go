// Package models содержит доменные структуры: пользователя с его тарифом,
// платежи, отзывы и сообщения, которые уходят в брокер.
package models

import (
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
)

// User зарегистрированный пользователь вместе с текущим тарифом.
type User struct {
	ID            int64      // Идентификатор, выдаётся базой
	Name          string     // Отображаемое имя
	Email         string     // Электронная почта, уникальна
	PasswordHash  string     // bcrypt-хеш пароля
	APIKey        string     // Ключ для десктоп-клиента
	CurrentPlan   plan.Tier  // Текущий тариф
	PlanStartDate *time.Time // Начало действия тарифа, nil до активации
	PlanEndDate   *time.Time // Окончание действия тарифа, nil до активации
	PlanVersion   int64      // Версия тарифной записи для оптимистичной блокировки
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PlanState возвращает снимок тарифа для движка переходов.
func (u *User) PlanState() plan.State {
	return plan.State{
		Current: u.CurrentPlan,
		Start:   u.PlanStartDate,
		End:     u.PlanEndDate,
	}
}

// UserView представление пользователя в ответах API.
type UserView struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	APIKey        string     `json:"apiKey,omitempty"`
	CurrentPlan   plan.Tier  `json:"currentPlan"`
	PlanStartDate *time.Time `json:"planStartDate"`
	PlanEndDate   *time.Time `json:"planEndDate"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// View собирает представление без API-ключа.
func (u *User) View() UserView {
	return UserView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		CurrentPlan:   u.CurrentPlan,
		PlanStartDate: u.PlanStartDate,
		PlanEndDate:   u.PlanEndDate,
	}
}

// Profile собирает полное представление для владельца аккаунта.
func (u *User) Profile() UserView {
	v := u.View()
	v.APIKey = u.APIKey
	created := u.CreatedAt
	v.CreatedAt = &created
	return v
}
