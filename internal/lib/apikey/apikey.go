// Package apikey выпускает API-ключи, которыми десктоп-клиент аутентифицируется без браузера.
package apikey

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
)

// Length длина ключа.
const Length = 32

// Цифр в ключе. Остальные символы это латинские буквы в обоих регистрах.
const numDigits = 8

// Generate возвращает случайный буквенно-цифровой ключ длины Length.
func Generate() (string, error) {
	const op = "apikey.Generate"
	key, err := password.Generate(Length, numDigits, 0, false, true)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return key, nil
}
