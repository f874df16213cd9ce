// Package sender собирает приложение, которое читает события тарифов и
// отправляет письма пользователям.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/smtp"
	"github.com/magabrotheeeer/reflect-accounts/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/reflect-accounts/internal/services/sender"
)

// App представляет приложение отправителя писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и готовит SMTP-транспорт.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(logger, transport),
		logger:        logger,
	}, nil
}

// Run читает очереди до отмены ctx и дожидается начатых отправок.
func (a *App) Run(ctx context.Context) error {
	waitChanged, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueuePlanChanged, a.senderService.HandlePlanChanged)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueuePlanChanged), sl.Err(err))
		a.close()
		return err
	}

	waitExpiring, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueuePlanExpiring, a.senderService.HandlePlanExpiring)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueuePlanExpiring), sl.Err(err))
		a.close()
		waitChanged()
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	waitChanged()
	waitExpiring()
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
