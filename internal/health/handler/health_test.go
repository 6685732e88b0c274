package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

func TestHealthz_NilPinger(t *testing.T) {
	apitest.New().
		Handler(NewChecker(nil)).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "ok")).
		End()
}

func TestHealthz_PingerSuccess(t *testing.T) {
	apitest.New().
		Handler(NewChecker(&mockPinger{})).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestHealthz_PingerFailure(t *testing.T) {
	apitest.New().
		Handler(NewChecker(&mockPinger{pingErr: errors.New("connection refused")})).
		Get("/healthz").
		Expect(t).
		Status(http.StatusServiceUnavailable).
		Assert(jsonpath.Equal("$.status", "unavailable")).
		End()
}

func TestGRPCHealth_FollowsPinger(t *testing.T) {
	p := &mockPinger{}
	c := NewChecker(p)
	srv := NewGRPCServer(c)
	ctx := context.Background()

	resp, err := srv.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}

	p.pingErr = errors.New("connection refused")
	Update(ctx, srv, c)
	resp, err = srv.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.GetStatus())
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	srv := NewGRPCServer(NewChecker(nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Watch(ctx, srv, NewChecker(nil), 10*time.Millisecond)
		close(done)
	}()
	cancel()
	<-done
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after shutdown = %v, want NOT_SERVING", resp.GetStatus())
	}
}
