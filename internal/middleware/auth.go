package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// contextKey is a type for context keys
type contextKey string

// Context keys
const (
	UserKey  contextKey = "user"
	TokenKey contextKey = "token"
)

// TokenResolver turns a bearer token into the user it was issued for
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// Auth middleware for authenticating requests
func Auth(resolver TokenResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerToken(r)
			if tokenString == "" {
				api.Fail(w, http.StatusUnauthorized, "Access token required", nil)
				return
			}

			user, err := resolver.ResolveToken(r.Context(), tokenString)
			if err != nil {
				api.Error(w, logger, err)
				return
			}

			noteUser(r.Context(), user.ID)

			// Add user info to context
			ctx := WithUser(r.Context(), user)
			ctx = context.WithValue(ctx, TokenKey, tokenString)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole middleware for checking user roles
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := GetUser(r.Context())

			switch err := authz.RequireRole(user, roles...); {
			case errors.Is(err, authz.ErrUnauthenticated):
				api.Fail(w, http.StatusUnauthorized, "Authentication required", nil)
				return
			case err != nil:
				api.Fail(w, http.StatusForbidden, "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUser returns the authenticated user stored by Auth
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}

// GetToken returns the bearer token the request was authenticated with
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

var _ TokenResolver = (*service.AuthService)(nil)
