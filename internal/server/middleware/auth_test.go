package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"airguard/backend/internal/identity/service"
)

type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(ctx context.Context, token string) (*service.Identity, error) {
	if token != "good" {
		return nil, service.ErrUnauthenticated
	}
	return &service.Identity{UserID: "user-1", Email: "jane@x.com", OrgID: "org-1"}, nil
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserID(r.Context())
		orgID, _ := GetOrgID(r.Context())
		WriteJSON(w, http.StatusOK, map[string]string{"userId": userID, "orgId": orgID})
	})
}

func TestRequireAuth_MissingToken(t *testing.T) {
	apitest.New().
		Handler(RequireAuth(fakeAuthenticator{})(whoAmI())).
		Get("/").
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "missing or invalid authorization")).
		End()
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	apitest.New().
		Handler(RequireAuth(fakeAuthenticator{})(whoAmI())).
		Get("/").
		Header("Authorization", "Bearer bad").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestRequireAuth_BearerToken(t *testing.T) {
	apitest.New().
		Handler(RequireAuth(fakeAuthenticator{})(whoAmI())).
		Get("/").
		Header("Authorization", "bearer  good ").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.userId", "user-1")).
		Assert(jsonpath.Equal("$.orgId", "org-1")).
		End()
}

func TestRequireAuth_CookieToken(t *testing.T) {
	apitest.New().
		Handler(RequireAuth(fakeAuthenticator{})(whoAmI())).
		Get("/").
		Cookie(AccessTokenCookie, "good").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.userId", "user-1")).
		End()
}

func TestRequireAuth_HeaderWinsOverCookie(t *testing.T) {
	apitest.New().
		Handler(RequireAuth(fakeAuthenticator{})(whoAmI())).
		Get("/").
		Header("Authorization", "Bearer bad").
		Cookie(AccessTokenCookie, "good").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestExtractBearer(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"Bearer":        "",
		"Basic abc":     "",
		"Bearer abc":    "abc",
		"BEARER  abc  ": "abc",
	}
	for in, want := range tests {
		if got := extractBearer(in); got != want {
			t.Errorf("extractBearer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	if got := ClientIP(r); got != "10.1.2.3" {
		t.Errorf("ClientIP = %q", got)
	}
	r.RemoteAddr = "10.1.2.3"
	if got := ClientIP(r); got != "10.1.2.3" {
		t.Errorf("ClientIP without port = %q", got)
	}
	r.RemoteAddr = ""
	if got := ClientIP(r); got != "unknown" {
		t.Errorf("ClientIP empty = %q", got)
	}
}

