// Package services содержит сценарии смены тарифа: апгрейд, пробный период и
// активацию лицензии десктоп-клиентом.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/reflect-accounts/internal/cache"
	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/metrics"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	"github.com/magabrotheeeer/reflect-accounts/internal/rabbitmq"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

// MaxAttempts число попыток записи тарифа при конкурентных изменениях.
const MaxAttempts = 3

// UserRepository операции с пользователем, нужные для смены тарифа.
type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	UpdatePlan(ctx context.Context, userID int64, tier plan.Tier, start, end *time.Time,
		expectedVersion int64) (*models.User, error)
}

// Publisher публикует события в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Invalidator сбрасывает закешированные профили.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Recorder учитывает метрики переходов и событий.
type Recorder interface {
	PlanTransition(from, to plan.Tier, outcome string)
	EventPublished(routingKey, outcome string)
}

// PlanService применяет решения движка тарифов к хранилищу.
type PlanService struct {
	users       UserRepository
	events      Publisher
	cache       Invalidator
	recorder    Recorder
	log         *slog.Logger
	trialMode   string
	trialWindow time.Duration
	now         func() time.Time
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(users UserRepository, events Publisher, cache Invalidator, recorder Recorder,
	log *slog.Logger, cfg config.Plan) *PlanService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &PlanService{
		users:       users,
		events:      events,
		cache:       cache,
		recorder:    recorder,
		log:         log,
		trialMode:   cfg.FreeTrialMode,
		trialWindow: cfg.FreeTrialDuration,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ChangePlan переводит пользователя на запрошенный тариф по правилам движка.
func (s *PlanService) ChangePlan(ctx context.Context, userID int64, requested plan.Tier) (*models.User, plan.Result, error) {
	return s.apply(ctx, "services.ChangePlan", requested,
		func(ctx context.Context) (*models.User, error) { return s.users.GetUserByID(ctx, userID) },
		func(u *models.User, now time.Time) (plan.Result, error) {
			return plan.Transition(u.PlanState(), requested, now)
		})
}

// ActivateFreeTrial оформляет пробный период через движок тарифов.
func (s *PlanService) ActivateFreeTrial(ctx context.Context, userID int64) (*models.User, plan.Result, error) {
	return s.ChangePlan(ctx, userID, plan.FreeTrial)
}

// StartFreeTrial оформляет пробный период при покупке. В режиме deferred это
// обычный переход движка, в режиме window пробный тариф сразу получает окно действия.
func (s *PlanService) StartFreeTrial(ctx context.Context, userID int64) (*models.User, plan.Result, error) {
	if s.trialMode != config.FreeTrialWindow {
		return s.ActivateFreeTrial(ctx, userID)
	}
	return s.apply(ctx, "services.StartFreeTrial", plan.FreeTrial,
		func(ctx context.Context) (*models.User, error) { return s.users.GetUserByID(ctx, userID) },
		func(u *models.User, now time.Time) (plan.Result, error) {
			state := u.PlanState()
			if state.Current != "" && state.Current != plan.FreeTrial {
				return plan.Transition(state, plan.FreeTrial, now)
			}
			state.Current = plan.FreeTrial
			return plan.Activate(state, now, s.trialWindow)
		})
}

// ActivateLicense открывает окно действия текущего тарифа по API-ключу десктоп-клиента.
func (s *PlanService) ActivateLicense(ctx context.Context, apiKey string) (*models.User, plan.Result, error) {
	return s.apply(ctx, "services.ActivateLicense", "",
		func(ctx context.Context) (*models.User, error) { return s.users.GetUserByAPIKey(ctx, apiKey) },
		func(u *models.User, now time.Time) (plan.Result, error) {
			return plan.Activate(u.PlanState(), now, s.trialWindow)
		})
}

type decideFunc func(u *models.User, now time.Time) (plan.Result, error)

// apply читает пользователя, принимает решение и пишет его с проверкой версии.
// При конфликте версий цикл повторяется на свежем снимке.
func (s *PlanService) apply(ctx context.Context, op string, target plan.Tier,
	load func(context.Context) (*models.User, error), decide decideFunc) (*models.User, plan.Result, error) {
	log := s.log.With(slog.String("op", op))

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		u, err := load(ctx)
		if err != nil {
			return nil, plan.Result{}, fmt.Errorf("%s: %w", op, err)
		}
		to := target
		if to == "" {
			to = u.CurrentPlan
		}

		res, err := decide(u, s.now())
		if err != nil {
			s.recorder.PlanTransition(u.CurrentPlan, to, metrics.OutcomeRejected)
			return nil, plan.Result{}, fmt.Errorf("%s: %w", op, err)
		}

		updated, err := s.users.UpdatePlan(ctx, u.ID, res.Tier, res.Start, res.End, u.PlanVersion)
		if errors.Is(err, repository.ErrPlanConflict) {
			s.recorder.PlanTransition(u.CurrentPlan, to, metrics.OutcomeConflict)
			log.Warn("plan version conflict, retrying",
				slog.Int64("user_id", u.ID), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			s.recorder.PlanTransition(u.CurrentPlan, to, metrics.OutcomeError)
			return nil, plan.Result{}, fmt.Errorf("%s: %w", op, err)
		}

		s.recorder.PlanTransition(u.CurrentPlan, res.Tier, metrics.OutcomeOK)
		s.PlanChanged(ctx, updated, res)
		return updated, res, nil
	}

	return nil, plan.Result{}, fmt.Errorf("%s: %w", op, repository.ErrPlanConflict)
}

// PlanChanged выполняет действия после записанной смены тарифа: сбрасывает
// кеш профиля и публикует событие. Ошибки только логируются, запись уже сделана.
func (s *PlanService) PlanChanged(ctx context.Context, u *models.User, res plan.Result) {
	log := s.log.With(slog.String("op", "services.PlanChanged"), slog.Int64("user_id", u.ID))

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cache.UserKey(u.ID)); err != nil {
			log.Warn("failed to invalidate user cache", sl.Err(err))
		}
	}
	if s.events == nil {
		return
	}

	event := models.PlanChanged{
		EventID:       uuid.NewString(),
		UserID:        u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Plan:          u.CurrentPlan,
		PlanStartDate: u.PlanStartDate,
		PlanEndDate:   u.PlanEndDate,
		Message:       res.Message,
		OccurredAt:    s.now(),
	}
	if err := s.events.Publish(ctx, rabbitmq.RoutingPlanChanged, event); err != nil {
		s.recorder.EventPublished(rabbitmq.RoutingPlanChanged, metrics.OutcomeError)
		log.Error("failed to publish plan event", sl.Err(err))
		return
	}
	s.recorder.EventPublished(rabbitmq.RoutingPlanChanged, metrics.OutcomeOK)
}
