// Package scheduler собирает приложение, которое рассылает события о скором
// окончании тарифов.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/rabbitmq"
	schedulerservice "github.com/magabrotheeeer/reflect-accounts/internal/services/scheduler"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// waitForDB ждёт, пока API применит миграции.
func waitForDB(ctx context.Context, db *repository.Storage) error {
	var err error
	for range dbReadyAttempts {
		if err = repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = waitForDB(ctx, db); err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	publisher := rabbitmq.NewPublisher(ch, rabbitmq.Exchange)
	schedulerService := schedulerservice.NewSchedulerService(db, publisher, logger, cfg.SchedulerInterval)

	return &App{
		schedulerService: schedulerService,
		db:               db,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx)

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
