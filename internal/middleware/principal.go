// AngelaMos | 2026
// principal.go

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
)

const PrincipalKey contextKey = "principal"

// DeniedMessage is returned when an authenticated user lacks a coarse
// permission or role.
const DeniedMessage = "This action is unauthorized."

type PrincipalLoader interface {
	Load(ctx context.Context, userID string) (*authz.Principal, error)
}

// LoadPrincipal resolves the authenticated user's current roles and
// permissions. It must run after Authenticator.
func LoadPrincipal(loader PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := loader.Load(r.Context(), userID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.Unauthorized(w, "account no longer exists")
					return
				}
				core.InternalServerError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p *authz.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func GetPrincipal(ctx context.Context) *authz.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*authz.Principal); ok {
		return p
	}
	return nil
}

// RequirePermission admits principals holding at least one of perms.
func RequirePermission(perms ...authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p.SubjectID() == "" {
				core.Forbidden(w, authz.ReasonUnauthenticated)
				return
			}

			if !p.HasAnyPermission(perms...) {
				core.Forbidden(w, DeniedMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(roles ...authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p.SubjectID() == "" {
				core.Forbidden(w, authz.ReasonUnauthenticated)
				return
			}

			if !p.HasAnyRole(roles...) {
				core.Forbidden(w, DeniedMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(authz.RoleAdmin)(next)
}
