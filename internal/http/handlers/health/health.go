// Package health отвечает на проверку живости и доступности базы.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/reflect-accounts/internal/http/response"
	"github.com/magabrotheeeer/reflect-accounts/internal/lib/sl"
)

const pingTimeout = 2 * time.Second

// Pinger проверяет соединение с хранилищем.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler обрабатывает GET /healthz.
type Handler struct {
	log *slog.Logger
	db  Pinger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{log: log, db: db}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database is unavailable", slog.String("op", op), sl.Err(err))
		response.Write(w, r, http.StatusServiceUnavailable, response.Fail("database unavailable"))
		return
	}
	response.Write(w, r, http.StatusOK, response.OK("ok"))
}
