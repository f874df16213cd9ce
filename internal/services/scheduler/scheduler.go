// Package services содержит периодический поиск тарифов, срок которых истекает завтра.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/rabbitmq"
)

// UserRepository поиск пользователей по дате окончания тарифа.
type UserRepository interface {
	FindPlansExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
}

// Publisher публикует события в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// notice уже отправленное уведомление: пользователь и конкретная дата окончания.
type notice struct {
	userID int64
	end    int64
}

// SchedulerService рассылает события plan.expiring.
// Одно окончание тарифа уведомляется один раз, даже если окно "завтра" попадает
// в несколько тиков.
type SchedulerService struct {
	repo     UserRepository
	events   Publisher
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	notified map[notice]struct{}
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo UserRepository, events Publisher, log *slog.Logger, interval time.Duration) *SchedulerService {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &SchedulerService{
		repo:     repo,
		events:   events,
		log:      log,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		notified: make(map[notice]struct{}),
	}
}

// TomorrowWindow возвращает границы завтрашних суток по UTC: [начало, конец).
func TomorrowWindow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.UTC().Date()
	from := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

// Run выполняет проверку сразу и затем с заданным интервалом, пока ctx не отменён.
func (s *SchedulerService) Run(ctx context.Context) {
	if _, err := s.NotifyExpiringTomorrow(ctx); err != nil {
		s.log.Error("expiring plans check failed", sl.Err(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.NotifyExpiringTomorrow(ctx); err != nil {
				s.log.Error("expiring plans check failed", sl.Err(err))
			}
		}
	}
}

// NotifyExpiringTomorrow публикует plan.expiring для каждого тарифа, истекающего завтра
// и ещё не уведомлённого. Возвращает число опубликованных событий. Ошибка публикации
// одного события не прерывает рассылку остальным, такое событие уйдёт на следующем тике.
func (s *SchedulerService) NotifyExpiringTomorrow(ctx context.Context) (int, error) {
	const op = "services.NotifyExpiringTomorrow"
	log := s.log.With(slog.String("op", op))

	from, to := TomorrowWindow(s.now())
	users, err := s.repo.FindPlansExpiringBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(users) == 0 {
		log.Info("no expiring plans found")
		return 0, nil
	}
	log.Info("found expiring plans", slog.Int("count", len(users)))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgetBefore(from)

	published, skipped := 0, 0
	for _, u := range users {
		if u.PlanEndDate == nil {
			continue
		}
		key := notice{userID: u.ID, end: u.PlanEndDate.UnixNano()}
		if _, ok := s.notified[key]; ok {
			skipped++
			continue
		}
		event := models.PlanExpiring{
			UserID:      u.ID,
			Email:       u.Email,
			Name:        u.Name,
			Plan:        u.CurrentPlan,
			PlanEndDate: *u.PlanEndDate,
		}
		if err = s.events.Publish(ctx, rabbitmq.RoutingPlanExpiring, event); err != nil {
			log.Error("failed to publish message", slog.Int64("user_id", u.ID), sl.Err(err))
			continue
		}
		s.notified[key] = struct{}{}
		published++
	}
	if skipped > 0 {
		log.Info("skipped already notified plans", slog.Int("count", skipped))
	}
	return published, nil
}

// forgetBefore убирает уведомления о тарифах, закончившихся до from.
func (s *SchedulerService) forgetBefore(from time.Time) {
	cutoff := from.UnixNano()
	for k := range s.notified {
		if k.end < cutoff {
			delete(s.notified, k)
		}
	}
}
