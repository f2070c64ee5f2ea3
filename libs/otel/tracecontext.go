package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is the serialisable W3C trace context of a span, stored
// alongside work that is resumed later (outbox rows).
type TraceContext struct {
	Parent string
	State  string
}

func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Parent: carrier["traceparent"], State: carrier["tracestate"]}
}

func ContextWithTraceContext(ctx context.Context, tc TraceContext) context.Context {
	if tc.Parent == "" && tc.State == "" {
		return ctx
	}
	carrier := propagation.MapCarrier{
		"traceparent": tc.Parent,
		"tracestate":  tc.State,
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
