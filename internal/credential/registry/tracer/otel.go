// Package tracer adapts OpenTelemetry to the registry's tracer port.
package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTel wraps an OpenTelemetry tracer.
type OTel struct {
	tracer trace.Tracer
}

// NewOTel creates an adapter using the globally registered tracer provider.
func NewOTel(instrumentation string) *OTel {
	return &OTel{tracer: otel.Tracer(instrumentation)}
}

// Start opens a span. The returned func ends it, recording err when non-nil.
func (t *OTel) Start(ctx context.Context, name string) (context.Context, func(err error)) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
