// Package jwt реализует выпуск и проверку сессионных JWT токенов.
//
// Maker определяет интерфейс для создания и проверки токенов с идентификатором пользователя.
// MakerImpl конкретная реализация с использованием секретного ключа и срока жизни.
package jwt

import (
	"time"
)

// DefaultTTL срок жизни сессионного токена.
const DefaultTTL = 7 * 24 * time.Hour

// Maker описывает интерфейс для генерации и проверки токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя.
	GenerateToken(userID int64) (string, error)
	// ParseToken разбирает токен и возвращает его claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
	// Verify возвращает идентификатор пользователя или false для любого невалидного токена.
	Verify(tokenStr string) (int64, bool)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string           // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration    // Время жизни токена.
	now       func() time.Time // Источник времени.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
// Нулевой ttl заменяется на DefaultTTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}
