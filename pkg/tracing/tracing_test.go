package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), DefaultConfig("storefront"))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := DefaultConfig("storefront")
	cfg.Enabled = true
	// Export is batched and asynchronous, so an unreachable endpoint is fine.
	cfg.OTLPEndpoint = "127.0.0.1:0"
	cfg.SampleRate = 0.5

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	_ = shutdown(context.Background())
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		assert.Contains(t, newSampler(tt.rate).Description(), tt.want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("storefront")

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, "localhost:4318", cfg.OTLPEndpoint)
}

func TestStart_RecordsInternalSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "catalog.refresh", attribute.Int("products", 3))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "catalog.refresh", spans[0].Name)
	assert.Equal(t, InstrumentationName, spans[0].InstrumentationScope.Name)
}
