package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/loopsocial/loop-api/internal/pkg/jwt"
	"github.com/loopsocial/loop-api/internal/pkg/response"
)

type contextKey string

const (
	// UserIDKey holds the resolved actor id for the request
	UserIDKey contextKey = "user_id"
)

// Auth returns middleware that validates the bearer JWT and places the
// resolved user id into the request context. Handlers read it once and pass
// it explicitly into services; nothing below the handler layer touches the
// session.
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			if claims.IsSuspended {
				response.Forbidden(w, "Your account has been suspended")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context; 0 means unauthenticated
func GetUserID(ctx context.Context) int64 {
	if id, ok := ctx.Value(UserIDKey).(int64); ok {
		return id
	}
	return 0
}
