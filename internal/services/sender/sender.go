// Package services содержит рассылку писем по событиям тарифов.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/smtp"
	"github.com/magabrotheeeer/reflect-accounts/internal/models"
	"github.com/magabrotheeeer/reflect-accounts/internal/rabbitmq"
)

const dateLayout = "02 Jan 2006"

// SenderService отправляет письма по событиям plan.changed и plan.expiring.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandlePlanChanged сообщает пользователю о смене тарифа.
func (s *SenderService) HandlePlanChanged(_ context.Context, body []byte) error {
	const op = "services.HandlePlanChanged"

	var event models.PlanChanged
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: error unmarshalling message: %v: %w", op, err, rabbitmq.ErrDiscard)
	}
	if event.Email == "" {
		return fmt.Errorf("%s: empty recipient: %w", op, rabbitmq.ErrDiscard)
	}

	subject := fmt.Sprintf("Your Reflect plan: %s", event.Plan)
	text := fmt.Sprintf("Hello, %s!\n\n%s.\n", event.Name, event.Message)
	if event.PlanEndDate != nil {
		text += fmt.Sprintf("Your %s plan is active until %s.\n", event.Plan, event.PlanEndDate.Format(dateLayout))
	} else {
		text += "Open the Reflect desktop app to activate your plan.\n"
	}

	return s.sendEmail(op, event.Email, subject, text)
}

// HandlePlanExpiring предупреждает пользователя, что тариф заканчивается завтра.
func (s *SenderService) HandlePlanExpiring(_ context.Context, body []byte) error {
	const op = "services.HandlePlanExpiring"

	var event models.PlanExpiring
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: error unmarshalling message: %v: %w", op, err, rabbitmq.ErrDiscard)
	}
	if event.Email == "" {
		return fmt.Errorf("%s: empty recipient: %w", op, rabbitmq.ErrDiscard)
	}

	subject := "Your Reflect plan expires tomorrow"
	text := fmt.Sprintf("Hello, %s!\n\nYour %s plan ends on %s.\nRenew it in advance to keep using Reflect without interruption.\n",
		event.Name, event.Plan, event.PlanEndDate.Format(dateLayout))

	return s.sendEmail(op, event.Email, subject, text)
}

func (s *SenderService) sendEmail(op, to, subject, text string) error {
	if err := smtp.Send(s.transport, []string{to}, subject, text); err != nil {
		s.log.Error("failed to send email", slog.String("op", op), slog.String("to", to), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("email sent successfully", slog.String("op", op), slog.String("to", to))
	return nil
}
