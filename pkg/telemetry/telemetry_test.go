package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_Disabled(t *testing.T) {
	clearEnv(t)

	ctx := context.Background()
	shutdown, err := Init(ctx, WithServiceVersion("v0.1.0"))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))

	assert.False(t, Enabled())
	assert.Equal(t, "v0.1.0", GetConfig().ServiceVersion)
}

func TestInit_OptionsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_ENABLED", "true")

	shutdown, err := Init(context.Background(), WithEnabled(false), WithEndpoint("collector:4317"))
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.False(t, Enabled())
	assert.Equal(t, "collector:4317", GetConfig().Endpoint)
}

func TestStartSpan_NoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "regenerate", attribute.String("view", "left"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsSampled())

	boom := errors.New("boom")
	assert.Equal(t, boom, RecordError(span, boom))
	assert.NoError(t, RecordError(span, nil))
}
