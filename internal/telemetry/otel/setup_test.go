package otel

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetup_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		p, err := Setup(ctx, Options{Endpoint: endpoint, ServiceName: "airguard-test"})
		if err != nil {
			t.Fatalf("Setup(%q): %v", endpoint, err)
		}
		if p.TracerProvider == nil || p.MeterProvider == nil || p.LoggerProvider == nil {
			t.Fatal("providers should not be nil")
		}
		if err := p.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown without endpoint: %v", err)
		}
	}
}

func TestSetup_BadEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := Setup(ctx, Options{Endpoint: endpoint, ServiceName: "airguard-test"}); err == nil {
			t.Errorf("Setup(%q) should fail", endpoint)
		}
	}
}

func TestParseCollector(t *testing.T) {
	cases := []struct {
		endpoint     string
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", "localhost:4317", true},
		{"http://collector:4317", "collector:4317", true},
		{"https://collector:4317", "collector:4317", false},
		{"http://localhost:4317/v1/traces", "localhost:4317", true},
	}
	for _, tc := range cases {
		c, err := parseCollector(tc.endpoint)
		if err != nil {
			t.Fatalf("parseCollector(%q): %v", tc.endpoint, err)
		}
		if c.target != tc.wantTarget || c.insecure != tc.wantInsecure {
			t.Errorf("parseCollector(%q) = %+v; want %q, insecure=%v", tc.endpoint, c, tc.wantTarget, tc.wantInsecure)
		}
	}
}

func TestServiceResource(t *testing.T) {
	res, err := serviceResource(context.Background(), "airguard-test", "staging")
	if err != nil {
		t.Fatalf("serviceResource: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got["service.name"] != "airguard-test" {
		t.Errorf("service.name = %q", got["service.name"])
	}
	if got["deployment.environment.name"] != "staging" {
		t.Errorf("deployment.environment.name = %q", got["deployment.environment.name"])
	}
}

func TestShutdownStack_ReverseOrderJoinsErrors(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	var s shutdownStack
	s.push(func(context.Context) error { order = append(order, 1); return nil })
	s.push(func(context.Context) error { order = append(order, 2); return boom })
	s.push(func(context.Context) error { order = append(order, 3); return nil })

	if err := s.run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("run err = %v, want boom", err)
	}
	if len(order) != 3 || order[0] != 3 || order[2] != 1 {
		t.Errorf("order = %v, want [3 2 1]", order)
	}
	if err := s.run(context.Background()); err != nil {
		t.Errorf("second run = %v, want nil", err)
	}
}

func TestSetGlobal(t *testing.T) {
	p, err := Setup(context.Background(), Options{ServiceName: "airguard-test"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	oldTP := otel.GetTracerProvider()
	oldMP := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(oldTP)
		otel.SetMeterProvider(oldMP)
	})

	p.SetGlobal()
	if otel.GetTracerProvider() != p.TracerProvider {
		t.Error("global TracerProvider not set")
	}
	if otel.GetMeterProvider() != p.MeterProvider {
		t.Error("global MeterProvider not set")
	}
	if len(otel.GetTextMapPropagator().Fields()) == 0 {
		t.Error("global propagator not set")
	}
}
