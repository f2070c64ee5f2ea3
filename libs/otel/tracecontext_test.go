package otelx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	tc := CaptureTraceContext(trace.ContextWithSpanContext(context.Background(), sc))
	assert.NotEmpty(t, tc.Parent)

	restored := trace.SpanContextFromContext(ContextWithTraceContext(context.Background(), tc))
	assert.Equal(t, traceID, restored.TraceID())
	assert.Equal(t, spanID, restored.SpanID())
}

func TestEmptyTraceContextKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ContextWithTraceContext(ctx, TraceContext{}))
	assert.Equal(t, TraceContext{}, CaptureTraceContext(ctx))
}
