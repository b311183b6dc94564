package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	log := zap.NewExample()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestRequestIDFrom(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
	assert.Equal(t, "req-1", RequestIDFrom(WithRequestID(context.Background(), "req-1")))
}

func TestCtx_RequestAndTraceFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-42")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()

	Ctx(ctx).With(zap.String("component", "billing")).Info("recalculated")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "billing", fields["component"])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}

func TestEnrich(t *testing.T) {
	t.Run("no span or request id returns base", func(t *testing.T) {
		base := zap.NewExample()
		assert.Same(t, base, Enrich(context.Background(), base))
	})

	t.Run("nil base", func(t *testing.T) {
		assert.NotNil(t, Enrich(context.Background(), nil))
	})

	t.Run("request id only", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		Enrich(WithRequestID(context.Background(), "req-9"), zap.New(core)).Warn("no trace")

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-9", fields["request_id"])
		assert.NotContains(t, fields, "trace_id")
	})
}
