// Package password хеширует пароли пользователей bcrypt и сверяет их при входе.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost стоимость bcrypt для новых хешей.
const Cost = 12

// MaxLength предел bcrypt в байтах, всё что длиннее алгоритм не учитывает.
const MaxLength = 72

var (
	// ErrMismatch пароль не совпадает с хешем.
	ErrMismatch = errors.New("password does not match")
	// ErrTooLong пароль длиннее MaxLength байт.
	ErrTooLong = errors.New("password is too long")
)

// GetHash возвращает bcrypt-хеш пароля для хранения в users.password_hash.
func GetHash(raw string) (string, error) {
	const op = "password.GetHash"
	if len(raw) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash сверяет пароль с сохранённым хешем.
// Несовпадение возвращается как ErrMismatch, повреждённый хеш как прочая ошибка.
func CompareHash(hash, raw string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
