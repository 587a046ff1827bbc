package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race_access/internal/utils"
)

const secret = "test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(UserIDKey))
	})
	return r
}

func sign(t *testing.T, claims utils.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func call(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	r := newAuthRouter()
	token, err := utils.GenerateJWT("user-1", secret)
	require.NoError(t, err)

	w := call(r, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	r := newAuthRouter()
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	otherSecret, err := utils.GenerateJWT("user-1", "other-secret")
	require.NoError(t, err)
	valid, err := utils.GenerateJWT("user-1", secret)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":   "",
		"wrong scheme":     "Basic " + valid,
		"empty token":      "Bearer ",
		"wrong secret":     "Bearer " + otherSecret,
		"subject mismatch": "Bearer " + sign(t, utils.Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1", ExpiresAt: exp}}),
		"blank user id":    "Bearer " + sign(t, utils.Claims{UserID: "  ", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := call(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestJWTAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	r := newAuthRouter()
	token, err := utils.GenerateJWT("user-2", secret)
	require.NoError(t, err)

	w := call(r, "bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-2", w.Body.String())
}
