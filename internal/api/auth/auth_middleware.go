package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docvault/docvault/app/observability"
	"github.com/docvault/docvault/internal/api"
	"github.com/docvault/docvault/internal/types"
)

// Define typed context keys
type contextKey string

const userContextKey contextKey = "authUser"

// Authenticate validates the bearer token on each request and attaches
// the resolved identity to the request context. Rejections carry the
// specific failure reason.
func Authenticate(logger *slog.Logger, service AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, err := bearerToken(r)
			if err != nil {
				l.WarnContext(ctx, "Missing or malformed Authorization header")
				observability.Metrics().AuthFailuresTotal.Add(ctx, 1)
				api.ErrorResponse(w, r, http.StatusUnauthorized, err.Error())
				return
			}

			user, err := service.VerifyToken(ctx, tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
				observability.Metrics().AuthFailuresTotal.Add(ctx, 1)
				api.ErrorResponse(w, r, http.StatusUnauthorized, reasonForTokenError(err))
				return
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x"
// header.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", types.ErrTokenMissing
	}

	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
		return "", errors.New("authorization header format must be Bearer {token}")
	}
	if headerParts[1] == "" {
		return "", types.ErrTokenMissing
	}
	return headerParts[1], nil
}

func reasonForTokenError(err error) string {
	switch {
	case errors.Is(err, types.ErrTokenMissing):
		return "no token provided"
	case errors.Is(err, types.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, types.ErrTokenMalformed):
		return "malformed token"
	case errors.Is(err, types.ErrUnknownSubject):
		return "user not found"
	default:
		return "invalid token"
	}
}

// UserFromContext returns the identity attached by Authenticate.
func UserFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(userContextKey).(*types.User)
	return user, ok
}

// ContextWithUser is used by handler tests to simulate an
// authenticated request.
func ContextWithUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
