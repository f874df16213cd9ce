// Package services содержит сценарии оплаты тарифа: создание заказа у
// платёжного шлюза и подтверждение платежа по подписи.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/metrics"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/paymentprovider"
	"github.com/magabrotheeeer/reflect-accounts/internal/plan"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

// Ошибки подтверждения платежа.
var (
	ErrInvalidSignature = errors.New("Invalid payment signature")
	ErrPlanMismatch     = errors.New("Plan does not match the payment order")
)

// Этапы платежа для метрик.
const (
	stageOrder  = "order"
	stageVerify = "verify"
)

// Gateway платёжный шлюз.
type Gateway interface {
	CreateOrder(ctx context.Context, req paymentprovider.CreateOrderRequest) (*paymentprovider.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Repository операции хранилища для платежей.
type Repository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreatePayment(ctx context.Context, p models.Payment) (int64, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	ConfirmPayment(ctx context.Context, userID int64, orderID, paymentID string,
		apply repository.PlanApplier) (*repository.Confirmation, error)
}

// PlanService пробный период и действия после смены тарифа.
type PlanService interface {
	StartFreeTrial(ctx context.Context, userID int64) (*models.User, plan.Result, error)
	PlanChanged(ctx context.Context, u *models.User, res plan.Result)
}

// Recorder учитывает метрики платежей и переходов.
type Recorder interface {
	Payment(stage, outcome string)
	PlanTransition(from, to plan.Tier, outcome string)
}

// OrderResult итог оформления покупки.
type OrderResult struct {
	FreeTrial bool   // Пробный период оформлен без шлюза
	Message   string // Сообщение для пользователя
	OrderID   string // Заказ у шлюза
	Amount    int64  // Сумма в пайсах
	Currency  string
	Plan      plan.Tier
	KeyID     string // Публичный ключ шлюза для checkout
	User      *models.User
}

// VerifyResult итог подтверждения платежа.
type VerifyResult struct {
	User     *models.User
	Payment  *models.Payment
	Message  string
	Replayed bool
}

// PaymentService оформляет и подтверждает покупки тарифов.
type PaymentService struct {
	repo     Repository
	gateway  Gateway
	plans    PlanService
	recorder Recorder
	log      *slog.Logger
	now      func() time.Time
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo Repository, gateway Gateway, plans PlanService, recorder Recorder,
	log *slog.Logger) *PaymentService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &PaymentService{
		repo:     repo,
		gateway:  gateway,
		plans:    plans,
		recorder: recorder,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Receipt формирует номер квитанции вида nxv_reflect_<plan>_<unix-ms>.
func Receipt(tier plan.Tier, now time.Time) string {
	slug := strings.ReplaceAll(strings.ToLower(tier.String()), " ", "_")
	return "nxv_reflect_" + slug + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// CreateOrder оформляет покупку. Free Trial не проходит через шлюз. Для платного
// тарифа сумма сверяется с прайсом, а переход проверяется движком заранее, чтобы
// не принимать деньги за заведомо отклонённую смену тарифа.
func (s *PaymentService) CreateOrder(ctx context.Context, userID int64, tier plan.Tier,
	amount int, currency string) (*OrderResult, error) {
	const op = "services.CreateOrder"

	if !tier.Valid() {
		return nil, fmt.Errorf("%s: %w", op, &plan.RejectionError{Reason: plan.ReasonUnknownPlan, To: tier})
	}
	if tier == plan.FreeTrial {
		u, _, err := s.plans.StartFreeTrial(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &OrderResult{
			FreeTrial: true,
			Message:   "Free trial activated successfully!",
			Plan:      plan.FreeTrial,
			User:      u,
		}, nil
	}

	if err := plan.CheckPrice(tier, amount); err != nil {
		s.recorder.Payment(stageOrder, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if currency == "" {
		currency = plan.DefaultCurrency
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = plan.Transition(u.PlanState(), tier, s.now()); err != nil {
		s.recorder.Payment(stageOrder, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.gateway.CreateOrder(ctx, paymentprovider.CreateOrderRequest{
		Amount:   int64(amount) * 100,
		Currency: currency,
		Receipt:  Receipt(tier, s.now()),
		Notes: map[string]string{
			"plan":           tier.String(),
			"user_id":        strconv.FormatInt(u.ID, 10),
			"customer_email": u.Email,
			"customer_name":  u.Name,
		},
	})
	if err != nil {
		s.recorder.Payment(stageOrder, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.repo.CreatePayment(ctx, models.Payment{
		UserID:   u.ID,
		OrderID:  order.ID,
		Amount:   float64(amount),
		Currency: currency,
		Plan:     tier,
	}); err != nil {
		s.recorder.Payment(stageOrder, metrics.OutcomeError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.recorder.Payment(stageOrder, metrics.OutcomeOK)
	s.log.Info("payment order created",
		slog.String("op", op), slog.Int64("user_id", u.ID),
		slog.String("order_id", order.ID), slog.String("plan", tier.String()))

	return &OrderResult{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Plan:     tier,
		KeyID:    s.gateway.KeyID(),
		User:     u,
	}, nil
}

// Verify проверяет подпись шлюза и применяет оплаченный тариф в одной транзакции
// с фиксацией платежа. Тариф берётся из заказа; если клиент прислал другой, это ошибка.
func (s *PaymentService) Verify(ctx context.Context, userID int64, orderID, paymentID, signature string,
	requested plan.Tier) (*VerifyResult, error) {
	const op = "services.Verify"

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		s.recorder.Payment(stageVerify, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	p, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrPaymentNotFound)
	}
	if requested != "" && requested != p.Plan {
		s.recorder.Payment(stageVerify, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s: %w", op, ErrPlanMismatch)
	}

	now := s.now()
	conf, err := s.repo.ConfirmPayment(ctx, userID, orderID, paymentID,
		func(u *models.User, p *models.Payment) (plan.Result, error) {
			return plan.Transition(u.PlanState(), p.Plan, now)
		})
	if err != nil {
		outcome := metrics.OutcomeError
		if rej, ok := plan.AsRejection(err); ok {
			outcome = metrics.OutcomeRejected
			s.recorder.PlanTransition(rej.From, rej.To, metrics.OutcomeRejected)
		}
		s.recorder.Payment(stageVerify, outcome)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if conf.Replayed {
		s.recorder.Payment(stageVerify, metrics.OutcomeReplayed)
	} else {
		s.recorder.Payment(stageVerify, metrics.OutcomeOK)
		s.recorder.PlanTransition(conf.Previous, conf.User.CurrentPlan, metrics.OutcomeOK)
		s.plans.PlanChanged(ctx, conf.User, conf.Result)
	}

	return &VerifyResult{
		User:     conf.User,
		Payment:  conf.Payment,
		Message:  "Payment verified successfully!",
		Replayed: conf.Replayed,
	}, nil
}
