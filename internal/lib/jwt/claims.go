package jwt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken возвращается для любого токена, не прошедшего проверку.
var ErrInvalidToken = errors.New("invalid token")

// CustomClaims описывает данные, хранящиеся в JWT.
type CustomClaims struct {
	UserID               int64 `json:"userId"` // Идентификатор пользователя
	jwt.RegisteredClaims       // Стандартные claims (ExpiresAt, IssuedAt, Subject)
}

// GenerateToken создает JWT токен для userID, подписывая его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(userID int64) (string, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims := CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken парсит JWT токен, проверяет алгоритм, подпись и срок действия.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}

// Verify возвращает идентификатор пользователя из токена.
// Любая ошибка разбора, подписи или срока действия даёт (0, false).
func (j *MakerImpl) Verify(tokenStr string) (int64, bool) {
	if tokenStr == "" {
		return 0, false
	}
	claims, err := j.ParseToken(tokenStr)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}
