package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/store"
)

const userKey contextKey = "user"

// TokenResolver maps a bearer token to the signed-in user
type TokenResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// Auth guards handlers behind a bearer token
type Auth struct {
	resolver TokenResolver
}

// NewAuth creates a new auth guard
func NewAuth(resolver TokenResolver) *Auth {
	return &Auth{resolver: resolver}
}

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// WithUser stores the signed-in user on the context
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the user stored by RequireUser or RequireAdmin
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

func (a *Auth) resolve(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	token := BearerToken(r)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	u, err := a.resolver.CurrentUser(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			zap.L().Error("auth lookup failed", zap.Error(err))
			WriteError(w, http.StatusServiceUnavailable, "Service unavailable")
			return nil, false
		}
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return u, true
}

// RequireUser rejects requests without a valid session with 401
func (a *Auth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := a.resolve(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), u)))
	}
}

// RequireAdmin is RequireUser plus a 403 for non-admin accounts
func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := a.resolve(w, r)
		if !ok {
			return
		}
		if !u.IsAdmin {
			WriteError(w, http.StatusForbidden, "Forbidden - Admin access required")
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), u)))
	}
}
