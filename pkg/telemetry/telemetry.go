package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName is the service name reported by the bridge.
	ServiceName = "project-graph-mcp"

	// TracerName is the tracer name for the bridge.
	TracerName = "github.com/lingy-Mg/project-graph"

	// MeterName is the meter name for the bridge.
	MeterName = "github.com/lingy-Mg/project-graph"
)

var (
	tracer trace.Tracer = otel.GetTracerProvider().Tracer(TracerName)

	meter metric.Meter

	// DispatchCounter counts commands handed to the application instance.
	DispatchCounter metric.Int64Counter

	// DispatchDuration tracks how long delivering a command took, in milliseconds.
	DispatchDuration metric.Float64Histogram

	// DispatchErrorCounter counts commands that could not be delivered.
	DispatchErrorCounter metric.Int64Counter

	// ResultCounter counts outcomes published back by the application instance.
	ResultCounter metric.Int64Counter
)

// Init picks up the global providers. Call it after the providers are installed.
func Init() {
	tracer = otel.GetTracerProvider().Tracer(TracerName)
	meter = otel.GetMeterProvider().Meter(MeterName)

	// Telemetry must never break the bridge, so instrument errors leave the
	// instrument nil and the Record helpers skip it.
	DispatchCounter, _ = meter.Int64Counter("mcp.bridge.dispatches",
		metric.WithDescription("Number of commands dispatched to the application instance"),
		metric.WithUnit("1"))

	DispatchDuration, _ = meter.Float64Histogram("mcp.bridge.duration",
		metric.WithDescription("Duration of command delivery"),
		metric.WithUnit("ms"))

	DispatchErrorCounter, _ = meter.Int64Counter("mcp.bridge.errors",
		metric.WithDescription("Number of commands that could not be delivered"),
		metric.WithUnit("1"))

	ResultCounter, _ = meter.Int64Counter("mcp.bridge.results",
		metric.WithDescription("Number of outcomes published by the application instance"),
		metric.WithUnit("1"))
}

// StartDispatchSpan starts a span for one command, named after its kind.
func StartDispatchSpan(ctx context.Context, kind, target string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{
		attribute.String("mcp.bridge.kind", kind),
		attribute.String("mcp.bridge.target", target),
	}, attrs...)

	return tracer.Start(ctx, "mcp.bridge."+kind,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindProducer))
}

// StartInterceptorSpan starts a span for a hook run around a delivery.
func StartInterceptorSpan(ctx context.Context, when, interceptorType string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{
		attribute.String("mcp.interceptor.when", when),
		attribute.String("mcp.interceptor.type", interceptorType),
	}, attrs...)

	return tracer.Start(ctx, "mcp.interceptor."+interceptorType,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindInternal))
}

func RecordDispatch(ctx context.Context, kind, target string) {
	if DispatchCounter == nil {
		return
	}

	DispatchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mcp.bridge.kind", kind),
		attribute.String("mcp.bridge.target", target),
	))
}

func RecordDispatchDuration(ctx context.Context, kind, target string, durationMs float64) {
	if DispatchDuration == nil {
		return
	}

	DispatchDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("mcp.bridge.kind", kind),
		attribute.String("mcp.bridge.target", target),
	))
}

// RecordDispatchError counts a failed delivery and records it on the span.
func RecordDispatchError(ctx context.Context, span trace.Span, kind, target, reason string, err error) {
	if span != nil {
		span.RecordError(err, trace.WithAttributes(
			attribute.String("mcp.bridge.error", reason),
		))
	}

	if DispatchErrorCounter == nil {
		return
	}

	DispatchErrorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mcp.bridge.kind", kind),
		attribute.String("mcp.bridge.target", target),
		attribute.String("mcp.bridge.error", reason),
	))
}

func RecordResult(ctx context.Context, state string) {
	if ResultCounter == nil {
		return
	}

	ResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mcp.result.state", state),
	))
}
