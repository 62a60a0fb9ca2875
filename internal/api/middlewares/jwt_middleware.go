package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/autoprovider/fileparse/internal/api/respond"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated user id attached by JWT.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WithUserID is exported for handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// JWT validates the Authorization header and attaches the user id to the
// request context. A bare token without the Bearer prefix is accepted too.
func JWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if tokenStr == "" {
				respond.Fail(w, http.StatusUnauthorized, "authentication token not provided, please log in")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					respond.Fail(w, http.StatusUnauthorized, "authentication token expired, please log in again")
					return
				}
				respond.Fail(w, http.StatusUnauthorized, "invalid authentication token, please log in again")
				return
			}
			if !token.Valid {
				respond.Fail(w, http.StatusUnauthorized, "invalid authentication token, please log in again")
				return
			}

			userID := claimString(claims, "user_id")
			if userID == "" {
				userID = claimString(claims, "id")
			}
			if userID == "" {
				respond.Fail(w, http.StatusUnauthorized, "token is missing the user id")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// claimString tolerates numeric ids issued by the main backend.
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
