// Package migrations применяет SQL-миграции схемы из каталога migrations.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirty схема осталась в незавершённом состоянии после упавшей миграции,
// нужен ручной `migrate force`.
var ErrDirty = errors.New("schema is dirty")

// Run применяет все непримененные миграции и возвращает версию схемы.
// Повторный запуск без новых файлов не является ошибкой.
func Run(db *sql.DB, path string) (uint, error) {
	const op = "migrations.Run"

	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "pgx_v5", driver)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, dirty, verr := m.Version(); verr == nil && dirty {
		return 0, fmt.Errorf("%s: %w", op, ErrDirty)
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return version, nil
}
