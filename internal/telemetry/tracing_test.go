package telemetry_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jaekwang-park/todo-store/internal/telemetry"
)

func TestSetupTracing_None(t *testing.T) {
	shutdown, err := telemetry.SetupTracing(context.Background(), telemetry.TracingOptions{Exporter: telemetry.ExporterNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestSetupTracing_Stdout(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	var buf bytes.Buffer
	shutdown, err := telemetry.SetupTracing(context.Background(), telemetry.TracingOptions{
		Exporter:    telemetry.ExporterStdout,
		ServiceName: "todo-store-test",
		Output:      &buf,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "TodoService.Create")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "TodoService.Create") {
		t.Errorf("expected exported span, got %q", out)
	}
	if !strings.Contains(out, "todo-store-test") {
		t.Errorf("expected service name in resource, got %q", out)
	}
}

func TestSetupTracing_OTLP(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	shutdown, err := telemetry.SetupTracing(context.Background(), telemetry.TracingOptions{
		Exporter: telemetry.ExporterOTLP,
		Endpoint: "127.0.0.1:4317",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestSetupTracing_Unsupported(t *testing.T) {
	if _, err := telemetry.SetupTracing(context.Background(), telemetry.TracingOptions{Exporter: "zipkin"}); err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}
