package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgpartners/ledger-analytics/internal/config"
)

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	var gotStaffID int64
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotStaffID, _ = StaffIDFromContext(r.Context())
	})
	handler := AuthMiddleware(cfg)(next)

	t.Run("valid token", func(t *testing.T) {
		called = false
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "secret", "42"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.True(t, called)
		assert.Equal(t, int64(42), gotStaffID)
	})

	t.Run("missing token", func(t *testing.T) {
		called = false
		r := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		called = false
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "other", "42"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-numeric subject", func(t *testing.T) {
		called = false
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "secret", "alice"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = RequestIDFromContext(r.Context())
	})
	handler := RequestIDMiddleware(log)(next)

	t.Run("generated", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.NotEmpty(t, gotID)
		assert.Equal(t, gotID, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagated", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, "req-123", gotID)
	})
}
