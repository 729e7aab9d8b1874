package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/apierr"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Auth creates authentication middleware that requires a valid bearer token
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			principal, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequirePrivileged rejects callers whose account is not privileged.
// It must run after Auth.
func RequirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if p == nil {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		if !p.Account.IsPrivileged {
			apierr.WriteError(w, model.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithPrincipal returns a context carrying p
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the authenticated principal, or nil
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalContextKey).(*auth.Principal)
	return p
}

// MustGetPrincipal returns the authenticated principal or panics
func MustGetPrincipal(ctx context.Context) *auth.Principal {
	p := PrincipalFromContext(ctx)
	if p == nil {
		panic("no principal in context - auth middleware not applied?")
	}
	return p
}
