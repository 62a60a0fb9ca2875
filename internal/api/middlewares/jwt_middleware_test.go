package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoprovider/fileparse/internal/api/respond"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protected(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seenUserID string
	h := JWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		require.True(t, ok)
		seenUserID = id
		w.WriteHeader(http.StatusOK)
	}))
	return h, &seenUserID
}

func doRequest(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) respond.Envelope {
	t.Helper()
	var env respond.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestJWT(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		h, _ := protected(t)
		rec := doRequest(h, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, 1, env.Status)
		assert.Contains(t, env.Message, "not provided")
	})

	t.Run("garbage token", func(t *testing.T) {
		h, _ := protected(t)
		rec := doRequest(h, "Bearer not.a.jwt")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, decodeEnvelope(t, rec).Message, "invalid")
	})

	t.Run("expired token", func(t *testing.T) {
		h, _ := protected(t)
		token := signToken(t, jwt.MapClaims{
			"user_id": "u1",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		rec := doRequest(h, "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, decodeEnvelope(t, rec).Message, "expired")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		h, _ := protected(t)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
			jwt.MapClaims{"user_id": "u1"}).SignedString([]byte("other-secret"))
		require.NoError(t, err)
		rec := doRequest(h, "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without user id", func(t *testing.T) {
		h, _ := protected(t)
		token := signToken(t, jwt.MapClaims{"role": "admin"})
		rec := doRequest(h, "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, decodeEnvelope(t, rec).Message, "user id")
	})

	t.Run("valid token with bearer prefix", func(t *testing.T) {
		h, seen := protected(t)
		token := signToken(t, jwt.MapClaims{"user_id": "u42"})
		rec := doRequest(h, "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u42", *seen)
	})

	t.Run("valid bare token accepted", func(t *testing.T) {
		h, seen := protected(t)
		token := signToken(t, jwt.MapClaims{"user_id": "u43"})
		rec := doRequest(h, token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u43", *seen)
	})

	t.Run("numeric id claim accepted via fallback", func(t *testing.T) {
		h, seen := protected(t)
		token := signToken(t, jwt.MapClaims{"id": float64(17)})
		rec := doRequest(h, "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "17", *seen)
	})
}
