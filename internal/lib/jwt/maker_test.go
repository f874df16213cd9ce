package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute)

	tests := []struct {
		name   string
		userID int64
	}{
		{name: "first user", userID: 1},
		{name: "regular user", userID: 42},
		{name: "large id", userID: 9_007_199_254_740_991},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)

			userID, ok := maker.Verify(token)
			assert.True(t, ok)
			assert.Equal(t, tt.userID, userID)
		})
	}
}

func TestJWTMaker_DefaultTTLIsSevenDays(t *testing.T) {
	maker := NewJWTMaker(testSecret, 0)

	token, err := maker.GenerateToken(7)
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestJWTMaker_Verify_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute)

	validToken, err := maker.GenerateToken(1)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: createExpiredToken(t)},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: createUnsignedToken(t)},
		{name: "no expiry", token: createTokenWithoutExpiry(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, ok := maker.Verify(tt.token)
			assert.False(t, ok)
			assert.Zero(t, userID)

			claims, err := maker.ParseToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_DifferentSecretKeys(t *testing.T) {
	maker1 := NewJWTMaker("first_secret_key", 15*time.Minute)
	maker2 := NewJWTMaker("different_secret_key", 15*time.Minute)

	token, err := maker1.GenerateToken(5)
	require.NoError(t, err)

	_, ok := maker2.Verify(token)
	assert.False(t, ok)

	userID, ok := maker1.Verify(token)
	assert.True(t, ok)
	assert.Equal(t, int64(5), userID)
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Hour)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	maker.now = func() time.Time { return issued }

	token, err := maker.GenerateToken(3)
	require.NoError(t, err)

	maker.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, ok := maker.Verify(token)
	assert.True(t, ok)

	maker.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func createExpiredToken(t *testing.T) string {
	maker := NewJWTMaker(testSecret, -time.Hour)
	token, err := maker.GenerateToken(1)
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	token, err := wrongMaker.GenerateToken(1)
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	claims := CustomClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func createTokenWithoutExpiry(t *testing.T) string {
	claims := CustomClaims{UserID: 1}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
