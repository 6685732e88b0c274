package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics records auth operation outcomes as the counter airguard.auth.operations.
type AuthMetrics struct {
	operations metric.Int64Counter
}

// NewAuthMetrics registers the auth counters on meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	c, err := meter.Int64Counter(
		"airguard.auth.operations",
		metric.WithDescription("Auth operations by operation and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}
	return &AuthMetrics{operations: c}, nil
}

// Record adds one to the counter for operation and outcome. Safe on a nil receiver.
func (m *AuthMetrics) Record(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
