// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import (
	"io"
	"log/slog"
	"os"
)

// Окружения, от которых зависит формат логов.
const (
	EnvLocal = "local"
	EnvProd  = "prod"
)

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Discard возвращает логгер, который ничего не пишет. Нужен в тестах.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// New создаёт логгер для окружения: текст с debug локально, JSON с info в prod.
func New(env string) *slog.Logger {
	switch env {
	case EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
