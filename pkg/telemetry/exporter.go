package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc/credentials/insecure"
)

// splitEndpoint strips a URL scheme and reports whether it asked for plaintext.
func splitEndpoint(endpoint string) (string, bool) {
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		return rest, true
	}
	return strings.TrimPrefix(endpoint, "https://"), false
}

func createExporter(ctx context.Context, cfg *Config) (*otlptrace.Exporter, error) {
	switch strings.ToLower(cfg.Protocol) {
	case "http/protobuf", "http":
		return createHTTPExporter(ctx, cfg)
	default:
		return createGRPCExporter(ctx, cfg)
	}
}

func createGRPCExporter(ctx context.Context, cfg *Config) (*otlptrace.Exporter, error) {
	var opts []otlptracegrpc.Option
	endpoint, plaintext := splitEndpoint(cfg.Endpoint)
	if endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	if cfg.Insecure || plaintext {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	return otlptracegrpc.New(ctx, opts...)
}

func createHTTPExporter(ctx context.Context, cfg *Config) (*otlptrace.Exporter, error) {
	var opts []otlptracehttp.Option
	endpoint, plaintext := splitEndpoint(cfg.Endpoint)
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	if cfg.Insecure || plaintext {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}
