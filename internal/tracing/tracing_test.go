package tracing

import (
	"context"
	"testing"
)

func TestDisabledProviderIsNoOp(t *testing.T) {
	provider, err := NewTracingProvider(Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.IsEnabled() {
		t.Error("provider should report disabled")
	}
	if err := provider.Start(context.Background()); err != nil {
		t.Errorf("Start: %v", err)
	}
	if err := provider.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if provider.GetTracer("x") == nil {
		t.Error("disabled provider must still hand out a tracer")
	}
}

func TestEnabledRequiresEndpoint(t *testing.T) {
	if _, err := NewTracingProvider(Config{Enabled: true}); err == nil {
		t.Error("expected error when enabled without endpoint")
	}
}

func TestMissingCACertFails(t *testing.T) {
	_, err := NewTracingProvider(Config{
		Enabled:   true,
		Endpoint:  "localhost:4317",
		TLSCAPath: "/nonexistent/ca.crt",
	})
	if err == nil {
		t.Error("expected error for unreadable CA certificate")
	}
}

func TestInsecureConnectionCreatesProvider(t *testing.T) {
	provider, err := NewTracingProvider(Config{
		Enabled:  true,
		Endpoint: "localhost:4317",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !provider.IsEnabled() {
		t.Error("provider should report enabled")
	}
	_ = provider.Stop(context.Background())
}
