package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"incident-notifier/internal/common/config"
)

// NewTraceExporter returns an OTLP/gRPC span exporter, or nil when no endpoint
// is configured. The collector connection is established lazily.
func NewTraceExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.OTLPEndpoint == "" {
		return nil, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp trace exporter: %w", err)
	}
	return exporter, nil
}

// SpanExportOptions batches spans to the configured exporter. It returns no
// options when tracing export is disabled.
func SpanExportOptions(ctx context.Context, cfg config.TracingConfig) ([]sdktrace.TracerProviderOption, error) {
	exporter, err := NewTraceExporter(ctx, cfg)
	if err != nil || exporter == nil {
		return nil, err
	}
	return []sdktrace.TracerProviderOption{sdktrace.WithBatcher(exporter)}, nil
}
