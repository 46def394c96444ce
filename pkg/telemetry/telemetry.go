// Package telemetry wires OpenTelemetry tracing for the CLI and HTTP host.
//
// Configuration comes from the standard OTEL_* environment variables, optionally
// overridden by the application config:
//
//	OTEL_ENABLED                    - Enable/disable tracing (default: false)
//	OTEL_SERVICE_NAME               - Service name (default: metaflame)
//	OTEL_SERVICE_VERSION            - Service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT     - OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL     - Protocol: grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS      - Exporter headers, key=value pairs
//	OTEL_EXPORTER_OTLP_INSECURE     - Use insecure connection (default: false)
//	OTEL_TRACES_SAMPLER             - Sampler type (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG         - Sampler argument (e.g., ratio)
//	OTEL_RESOURCE_ATTRIBUTES        - Additional resource attributes
//
// Spans are started through Tracer or StartSpan; both work against the global no-op
// provider when tracing is disabled.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used by every package of the module.
const InstrumentationName = "github.com/metaflame"

var (
	mu      sync.RWMutex
	current = LoadFromEnv()
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(_ context.Context) error {
	return nil
}

// Option adjusts the configuration used by Init.
type Option func(*Config)

// WithEnabled overrides OTEL_ENABLED.
func WithEnabled(enabled bool) Option {
	return func(c *Config) { c.Enabled = enabled }
}

// WithEndpoint overrides the collector endpoint when non-empty.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		if endpoint != "" {
			c.Endpoint = endpoint
		}
	}
}

// WithServiceVersion sets the service version resource attribute.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		if version != "" {
			c.ServiceVersion = version
		}
	}
}

// Init installs a global tracer provider. When tracing is disabled the global provider
// stays the default no-op and the returned shutdown does nothing.
func Init(ctx context.Context, opts ...Option) (ShutdownFunc, error) {
	cfg := LoadFromEnv()
	for _, opt := range opts {
		opt(cfg)
	}

	mu.Lock()
	current = cfg
	mu.Unlock()

	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(createSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Enabled reports whether tracing was enabled by the last Init or the environment.
func Enabled() bool {
	return GetConfig().Enabled
}

// GetConfig returns the active configuration.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span with the given attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed when err is non-nil and returns err.
func RecordError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
