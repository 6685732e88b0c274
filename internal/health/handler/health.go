package handler

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"airguard/backend/internal/logutil"
	"airguard/backend/internal/server/middleware"
)

// ServiceName is the gRPC health service name reported alongside the overall ("") status.
const ServiceName = "airguard.auth"

const pingTimeout = 2 * time.Second

// Pinger is implemented by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker reports readiness based on the database connection. A nil pinger is always healthy.
type Checker struct {
	pinger Pinger
}

// NewChecker returns a Checker for pinger.
func NewChecker(pinger Pinger) *Checker {
	return &Checker{pinger: pinger}
}

// Check pings the database with a short timeout.
func (c *Checker) Check(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.pinger.PingContext(ctx)
}

// ServeHTTP handles GET /healthz: 200 when the database answers, 503 otherwise.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := c.Check(r.Context()); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Warn().Err(err).Msg("health: database ping failed")
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewGRPCServer returns a grpc.health.v1 server whose status is refreshed from c by Watch.
func NewGRPCServer(c *Checker) *health.Server {
	srv := health.NewServer()
	Update(context.Background(), srv, c)
	return srv
}

// Update sets the serving status of srv from one check.
func Update(ctx context.Context, srv *health.Server, c *Checker) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := c.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	srv.SetServingStatus("", status)
	srv.SetServingStatus(ServiceName, status)
}

// Watch refreshes srv every interval until ctx is done, then marks it NOT_SERVING.
func Watch(ctx context.Context, srv *health.Server, c *Checker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			srv.Shutdown()
			return
		case <-ticker.C:
			Update(ctx, srv, c)
		}
	}
}
