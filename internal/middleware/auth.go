// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/joborders/internal/core"
)

const (
	UserIDKey contextKey = "user_id"
	ClaimsKey contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// AccessTokenClaims carries identity only. Roles and permissions are
// resolved per request by LoadPrincipal.
type AccessTokenClaims struct {
	UserID       string
	TokenID      string
	SessionID    string
	TokenVersion int
}

var errMissingToken = errors.New("missing authorization token")

// Authenticator rejects any request without a verified bearer token.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticator(verifier, false)
}

// OptionalAuthenticator lets requests without a token through anonymously so
// downstream guards can answer them. A token that is present must verify.
func OptionalAuthenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticator(verifier, true)
}

func authenticator(
	verifier TokenVerifier,
	optional bool,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" && optional {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verify(r.Context(), verifier, token)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verify(
	ctx context.Context,
	verifier TokenVerifier,
	token string,
) (*AccessTokenClaims, error) {
	if token == "" {
		return nil, errMissingToken
	}
	return verifier.VerifyAccessToken(ctx, token)
}

// ExtractToken returns the bearer token from the Authorization header, or
// an empty string.
func ExtractToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, errMissingToken):
		core.Unauthorized(w, errMissingToken.Error())
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// GetSessionID is the login session the access token was issued under.
func GetSessionID(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.SessionID
	}
	return ""
}
