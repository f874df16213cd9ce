package logout

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/reflect-accounts/internal/config"
)

func TestLogoutClearsCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	New(config.JWTToken{CookieName: "auth_token"}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
	assert.JSONEq(t, `{"success":true,"message":"Logged out successfully"}`, rr.Body.String())
}
