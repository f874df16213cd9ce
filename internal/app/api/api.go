package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/reflect-accounts/internal/cache"
	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/jwt"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
	"github.com/magabrotheeeer/reflect-accounts/internal/metrics"
	"github.com/magabrotheeeer/reflect-accounts/internal/migrations"
	"github.com/magabrotheeeer/reflect-accounts/internal/paymentprovider"
	"github.com/magabrotheeeer/reflect-accounts/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/reflect-accounts/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/reflect-accounts/internal/services/payment"
	planservice "github.com/magabrotheeeer/reflect-accounts/internal/services/plan"
	reviewservice "github.com/magabrotheeeer/reflect-accounts/internal/services/review"
	"github.com/magabrotheeeer/reflect-accounts/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение аккаунтов.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилище, кеш и брокер, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("migrations applied", slog.Uint64("version", uint64(version)))

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	m := metrics.New()
	publisher := rabbitmq.NewPublisher(ch, rabbitmq.Exchange)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	planService := planservice.NewPlanService(db, publisher, cacheRedis, m, logger, cfg.Plan)
	services := Services{
		Auth:    authservice.NewAuthService(db, jwtMaker, cacheRedis, logger),
		Plan:    planService,
		Payment: paymentservice.NewPaymentService(db, paymentprovider.NewClient(cfg.Razorpay), planService, m, logger),
		Review:  reviewservice.NewReviewService(db, cacheRedis, logger),
		DB:      db,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, m, services)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем даёт начатым запросам завершиться.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
