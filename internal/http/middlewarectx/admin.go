package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
)

// AdminHeader заголовок с ключом администратора.
const AdminHeader = "X-Admin-Key"

// AdminMiddleware пропускает только запросы с верным ключом администратора.
// Пустой adminKey закрывает доступ полностью.
func AdminMiddleware(adminKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminHeader)
			if adminKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(adminKey)) != 1 {
				log.Warn("admin access denied",
					slog.String("op", "middlewarectx.AdminMiddleware"),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.Write(w, r, http.StatusUnauthorized, response.Fail("Admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
