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
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject, issuer string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "a@b.c",
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func guardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"email":   c.GetString("email"),
		})
	})
	return r
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthValidToken(t *testing.T) {
	t.Setenv("SCRIBE_JWT_SECRET", testSecret)
	t.Setenv("SCRIBE_JWT_ISSUER", "")
	t.Setenv("SCRIBE_JWT_AUDIENCE", "")

	w := doRequest(guardedRouter(), "Bearer "+signToken(t, testSecret, "u1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	assert.Contains(t, w.Body.String(), `"email":"a@b.c"`)
}

func TestJWTAuthMissingToken(t *testing.T) {
	t.Setenv("SCRIBE_JWT_SECRET", testSecret)
	t.Setenv("SCRIBE_JWT_ISSUER", "")
	t.Setenv("SCRIBE_JWT_AUDIENCE", "")

	w := doRequest(guardedRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	t.Setenv("SCRIBE_JWT_SECRET", testSecret)
	t.Setenv("SCRIBE_JWT_ISSUER", "")
	t.Setenv("SCRIBE_JWT_AUDIENCE", "")

	w := doRequest(guardedRouter(), "Bearer "+signToken(t, "other-secret", "u1", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthIssuerMismatch(t *testing.T) {
	t.Setenv("SCRIBE_JWT_SECRET", testSecret)
	t.Setenv("SCRIBE_JWT_ISSUER", "scribe")
	t.Setenv("SCRIBE_JWT_AUDIENCE", "")

	w := doRequest(guardedRouter(), "Bearer "+signToken(t, testSecret, "u1", "someone-else"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(guardedRouter(), "Bearer "+signToken(t, testSecret, "u1", "scribe"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMissingSubject(t *testing.T) {
	t.Setenv("SCRIBE_JWT_SECRET", testSecret)
	t.Setenv("SCRIBE_JWT_ISSUER", "")
	t.Setenv("SCRIBE_JWT_AUDIENCE", "")

	w := doRequest(guardedRouter(), "Bearer "+signToken(t, testSecret, "", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
