package middlewarectx

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
)

// NewLimiter создаёт ограничитель на rps запросов в секунду с запасом burst.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RateLimitMiddleware отклоняет запросы сверх лимита со статусом 429.
func RateLimitMiddleware(limiter *rate.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests", slog.String("path", r.URL.Path))
				response.Write(w, r, http.StatusTooManyRequests, response.Fail("Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
