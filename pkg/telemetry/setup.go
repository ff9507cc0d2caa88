package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects where the bridge telemetry goes.
type Config struct {
	// Registerer receives the bridge metrics so they show up on /metrics.
	// Nil means the prometheus default registerer.
	Registerer prometheus.Registerer

	// Version is reported as the service version.
	Version string

	// OTLP also exports spans and metrics over OTLP/gRPC. The exporters read
	// the standard OTEL_EXPORTER_OTLP_* variables.
	OTLP bool
}

// Setup installs the global providers and creates the bridge instruments.
// The returned func flushes and stops the providers.
func Setup(ctx context.Context, config Config) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(config.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	promOptions := []otelprom.Option{otelprom.WithoutUnits()}
	if config.Registerer != nil {
		promOptions = append(promOptions, otelprom.WithRegisterer(config.Registerer))
	}
	promExporter, err := otelprom.New(promOptions...)
	if err != nil {
		return nil, err
	}

	meterOptions := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	}

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}

	if config.OTLP {
		metricExporter, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		meterOptions = append(meterOptions, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))

		traceExporter, err := otlptracegrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		tracerProvider := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(traceExporter),
		)
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		shutdowns = append(shutdowns, tracerProvider.Shutdown)
	}

	meterProvider := sdkmetric.NewMeterProvider(meterOptions...)
	otel.SetMeterProvider(meterProvider)
	shutdowns = append(shutdowns, meterProvider.Shutdown)

	Init()

	return shutdown, nil
}
