package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	healthhandler "airguard/backend/internal/health/handler"
	identityhandler "airguard/backend/internal/identity/handler"
	"airguard/backend/internal/server/middleware"
)

// HTTPDeps holds the dependencies of the HTTP router.
type HTTPDeps struct {
	Auth    identityhandler.AuthService
	Cookies identityhandler.CookieConfig
	// Health answers /healthz. If nil, /healthz always reports ok.
	Health *healthhandler.Checker
	Logger zerolog.Logger
	// LoginLimiter rate-limits POST /auth/login per client IP. If nil, login is not limited.
	LoginLimiter middleware.RateLimiter
	LoginLimit   int
	LoginWindow  time.Duration
}

// NewRouter returns the HTTP handler serving the auth API and /healthz.
//
// Middleware order: request id, real ip, tracing, request logger, panic recovery.
func NewRouter(deps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/healthz", deps.Health)

	var loginLimit func(http.Handler) http.Handler
	if deps.LoginLimiter != nil {
		loginLimit = middleware.RateLimit(deps.LoginLimiter, "login", deps.LoginLimit, deps.LoginWindow)
	}
	identityhandler.NewHandler(deps.Auth, deps.Cookies).RegisterRoutes(r, loginLimit)
	return r
}
