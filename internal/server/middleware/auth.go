package middleware

import (
	"context"
	"net/http"
	"strings"

	"airguard/backend/internal/identity/service"
)

const bearerPrefix = "bearer "

// AccessTokenCookie is the cookie carrying the access token for browser clients.
const AccessTokenCookie = "access_token"

// Authenticator resolves an access token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*service.Identity, error)
}

// RequireAuth returns middleware that validates the access token from the Authorization header
// (Bearer) or, failing that, the access_token cookie, and sets user_id, email, org_id in context.
// Requests without a valid token get 401.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessToken(r)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			ctx := WithIdentity(r.Context(), id.UserID, id.Email, id.OrgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessToken returns the Bearer token from the Authorization header, else the access_token
// cookie, else "".
func AccessToken(r *http.Request) string {
	if t := extractBearer(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
