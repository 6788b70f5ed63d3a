package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDisabled(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, "parking-test", "")
	require.NoError(t, err)

	_, span := Tracer().Start(ctx, "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, p.Shutdown(ctx))
}

func TestNewProviderWithEndpoint(t *testing.T) {
	ctx := context.Background()
	// The exporter connects lazily, so no collector is needed here.
	p, err := NewProvider(ctx, "parking-test", "http://127.0.0.1:4318")
	require.NoError(t, err)

	_, span := Tracer().Start(ctx, "sampled")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = p.Shutdown(shutdownCtx)
}
