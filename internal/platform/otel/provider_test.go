package otel_test

import (
	"context"
	"testing"

	"github.com/okian/lineup/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), "lineup-test", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address; nothing is exported because no span is ended.
	shutdown, err := otel.Setup(context.Background(), "lineup-test", "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestTracerStartsSpans(t *testing.T) {
	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if ctx == nil {
		t.Fatal("expected a context")
	}
}
