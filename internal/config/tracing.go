package config

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.uber.org/zap"
)

const serviceName = "hrportal"

// InitTracer installs the global tracer provider. Without an OTLP endpoint spans are
// still created for log correlation but never exported.
func InitTracer(settings *Settings, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("environment", settings.Environment),
		)),
	}

	if settings.OTLPEndpoint != "" {
		endpoint := otlptracegrpc.WithEndpoint(settings.OTLPEndpoint)
		if strings.Contains(settings.OTLPEndpoint, "://") {
			endpoint = otlptracegrpc.WithEndpointURL(settings.OTLPEndpoint)
		}
		exporter, err := otlptracegrpc.New(context.Background(), endpoint, otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
		))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracer provider initialized", zap.Bool("exporting", settings.OTLPEndpoint != ""))
	return tp, nil
}
