// Package api собирает HTTP-приложение аккаунтов: маршруты, сервисы и их зависимости.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/config"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/health"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/payment/paymentverify"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/plan/change"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/plan/freetrial"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/plan/license"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/review/reviewcreate"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/review/reviewlist"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/review/reviewmine"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/handlers/review/reviewmoderate"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/metrics"
	authservice "github.com/magabrotheeeer/reflect-accounts/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/reflect-accounts/internal/services/payment"
	planservice "github.com/magabrotheeeer/reflect-accounts/internal/services/plan"
	reviewservice "github.com/magabrotheeeer/reflect-accounts/internal/services/review"
)

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Auth    *authservice.AuthService
	Plan    *planservice.PlanService
	Payment *paymentservice.PaymentService
	Review  *reviewservice.ReviewService
	DB      health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, m *metrics.Metrics, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		m.Middleware,
	)

	// chi передаёт их подроутеру /api
	r.NotFound(response.NotFound)
	r.MethodNotAllowed(response.MethodNotAllowed)

	session := middlewarectx.SessionMiddleware(s.Auth, cfg.CookieName, logger)
	authLimiter := middlewarectx.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r.Route("/api", func(r chi.Router) {
		// Вход и регистрация под ограничением частоты
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(authLimiter, logger))
			r.Post("/auth/signup", signup.New(logger, s.Auth, cfg.JWTToken).ServeHTTP)
			r.Post("/auth/login", login.New(logger, s.Auth, cfg.JWTToken).ServeHTTP)
			r.Post("/license/activate", license.New(logger, s.Plan).ServeHTTP)
		})
		r.Post("/auth/logout", logout.New(cfg.JWTToken).ServeHTTP)
		r.Get("/get-reviews", reviewlist.New(logger, s.Review.ListApproved).ServeHTTP)

		// Группа с сессией
		r.Group(func(r chi.Router) {
			r.Use(session)
			r.Get("/auth/me", me.New(logger, s.Auth).ServeHTTP)
			r.Post("/plan/change", change.New(logger, s.Plan).ServeHTTP)
			r.Post("/activate-free-trial", freetrial.New(logger, s.Plan).ServeHTTP)
			r.Post("/create-payment", paymentcreate.New(logger, s.Payment).ServeHTTP)
			r.Post("/verify-payment", paymentverify.New(logger, s.Payment).ServeHTTP)
			r.Post("/create-review", reviewcreate.New(logger, s.Review).ServeHTTP)
			r.Get("/my-review", reviewmine.New(logger, s.Review).ServeHTTP)
		})

		// Модерация
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AdminMiddleware(cfg.AdminKey, logger))
			r.Get("/get-pending-reviews", reviewlist.New(logger, s.Review.ListPending).ServeHTTP)
			r.Post("/approve-review", reviewmoderate.New(logger, s.Review.Approve, "Review approved successfully").ServeHTTP)
			r.Post("/reject-review", reviewmoderate.New(logger, s.Review.Reject, "Review rejected successfully").ServeHTTP)
		})
	})

	r.Get("/healthz", health.New(logger, s.DB).ServeHTTP)
	r.Handle("/metrics", m.Handler())
}
