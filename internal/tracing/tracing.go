// Package tracing wraps the outgoing ACP wire calls in OpenTelemetry spans.
// Tracing is opt-in: unless a global TracerProvider has been installed via
// SetProvider, StartProtocolSpan operates against a no-op tracer so the
// bridge carries zero overhead by default.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "acpbridge"

var provider trace.TracerProvider = noop.NewTracerProvider()

// SetProvider installs the TracerProvider used by StartProtocolSpan. Call
// this once during startup if an OTLP exporter has been wired up; otherwise
// tracing stays a no-op.
func SetProvider(p trace.TracerProvider) {
	if p != nil {
		provider = p
	}
}

func tracer() trace.Tracer {
	return provider.Tracer(tracerName)
}

// StartProtocolSpan starts a client-kind span for one outgoing ACP call
// (initialize, new_session, prompt, cancel, or a client-side RPC callback
// such as request.permission). The caller must call span.End().
func StartProtocolSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, "acp."+name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, span
}

// SetSessionID attaches the UI session ID to an active span.
func SetSessionID(span trace.Span, sessionID string) {
	span.SetAttributes(attribute.String("session_id", sessionID))
}
