package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCDeps holds the services exposed on the gRPC side listener.
type GRPCDeps struct {
	// Health is the grpc.health.v1 server. If nil, no health service is registered.
	Health *health.Server
	// Reflection registers the server reflection service (for grpcurl) when true.
	Reflection bool
}

// NewGRPCServer returns a gRPC server instrumented with the OpenTelemetry stats handler and
// with the services of deps registered.
func NewGRPCServer(deps GRPCDeps) *grpc.Server {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers the gRPC services of deps with s.
func RegisterServices(s grpc.ServiceRegistrar, deps GRPCDeps) {
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
	if deps.Reflection {
		if srv, ok := s.(*grpc.Server); ok {
			reflection.Register(srv)
		}
	}
}
