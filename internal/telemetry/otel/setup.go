// Package otel wires OpenTelemetry tracing, metrics and logs for the auth service. Signals are
// exported over OTLP/gRPC to a single collector.
package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// DefaultMetricInterval is how often metrics are pushed when Options.MetricInterval is zero.
const DefaultMetricInterval = 15 * time.Second

// Options configures Setup.
type Options struct {
	// Endpoint is the collector address, as a URL or host:port. Empty disables export.
	Endpoint string
	// Insecure forces a plaintext connection even for https endpoints.
	Insecure    bool
	ServiceName string
	// Environment becomes deployment.environment.name when set.
	Environment    string
	MetricInterval time.Duration
}

// Providers holds the SDK providers built by Setup.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider

	stop shutdownStack
}

// Shutdown flushes and stops the providers in reverse creation order.
func (p *Providers) Shutdown(ctx context.Context) error {
	return p.stop.run(ctx)
}

// Setup builds the providers described by opts. Without an endpoint the providers record
// nothing outside the process and Shutdown does nothing.
func Setup(ctx context.Context, opts Options) (*Providers, error) {
	opts.Endpoint = strings.TrimSpace(opts.Endpoint)
	if opts.Endpoint == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  metric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
		}, nil
	}
	c, err := parseCollector(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	c.insecure = c.insecure || opts.Insecure

	res, err := serviceResource(ctx, opts.ServiceName, opts.Environment)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	p := &Providers{}
	if p.TracerProvider, err = c.tracerProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("otel traces: %w", err)
	}
	p.stop.push(p.TracerProvider.Shutdown)

	interval := opts.MetricInterval
	if interval <= 0 {
		interval = DefaultMetricInterval
	}
	if p.MeterProvider, err = c.meterProvider(ctx, res, interval); err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("otel metrics: %w", err)
	}
	p.stop.push(p.MeterProvider.Shutdown)

	if p.LoggerProvider, err = c.loggerProvider(ctx, res); err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("otel logs: %w", err)
	}
	p.stop.push(p.LoggerProvider.Shutdown)
	return p, nil
}

// SetGlobal installs the tracer and meter providers and a W3C trace-context plus baggage
// propagator as process globals. The LoggerProvider is handed to the event emitter directly.
func (p *Providers) SetGlobal() {
	otel.SetTracerProvider(p.TracerProvider)
	otel.SetMeterProvider(p.MeterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func serviceResource(ctx context.Context, service, env string) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
	}
	kv := semconv.ServiceName(service)
	if env != "" {
		attrs = append(attrs, resource.WithAttributes(kv, semconv.DeploymentEnvironmentName(env)))
	} else {
		attrs = append(attrs, resource.WithAttributes(kv))
	}
	return resource.New(ctx, attrs...)
}

// collector is the gRPC dial target shared by the three exporters.
type collector struct {
	target   string
	insecure bool
}

// parseCollector accepts "host:port" or a URL. Any path is dropped, and only https turns TLS on.
func parseCollector(endpoint string) (collector, error) {
	raw := endpoint
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return collector{}, fmt.Errorf("otel endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return collector{}, fmt.Errorf("otel endpoint %q: no host", endpoint)
	}
	return collector{target: u.Host, insecure: u.Scheme != "https"}, nil
}

func (c collector) tracerProvider(ctx context.Context, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.target)}
	if c.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res)), nil
}

func (c collector) meterProvider(ctx context.Context, res *resource.Resource, every time.Duration) (*metric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(c.target)}
	if c.insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	reader := metric.NewPeriodicReader(exp, metric.WithInterval(every))
	return metric.NewMeterProvider(metric.WithReader(reader), metric.WithResource(res)), nil
}

func (c collector) loggerProvider(ctx context.Context, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(c.target)}
	if c.insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exp, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)), sdklog.WithResource(res)), nil
}

// shutdownStack runs registered shutdown funcs last-in first-out and joins their errors.
type shutdownStack []func(context.Context) error

func (s *shutdownStack) push(fn func(context.Context) error) {
	*s = append(*s, fn)
}

func (s *shutdownStack) run(ctx context.Context) error {
	var errs []error
	for i := len(*s) - 1; i >= 0; i-- {
		if err := (*s)[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	*s = nil
	return errors.Join(errs...)
}
