// Package tracing exports the spans of order placement. A PlaceOrder trace is the HTTP
// request span continued from the caller's traceparent, its validating, pricing, reserving
// and paying children, and the otelmongo command spans issued inside the transaction.
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const ServiceName = "eshop-order-service"

var propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

type Options struct {
	CollectorHost string
	Environment   string
	// SampleRatio applies to root spans only. Requests arriving with a sampled parent are
	// always recorded so a checkout traced upstream stays whole.
	SampleRatio float64
}

// InitTracing registers a global tracer provider exporting over OTLP/HTTP. An empty
// collector host leaves the no-op provider in place and returns nil.
func InitTracing(opts Options) (*trace.TracerProvider, error) {
	if opts.CollectorHost == "" {
		return nil, nil
	}

	exporter, err := otlptrace.New(
		context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(fmt.Sprintf("%s:4318", opts.CollectorHost)),
			otlptracehttp.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithSampler(sampler(opts.SampleRatio)),
		trace.WithResource(serviceResource(opts.Environment)),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagator)

	return tracerProvider, nil
}

func sampler(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}

	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

func serviceResource(environment string) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(ServiceName)}
	if environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(environment))
	}

	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// Middleware starts a server span per request, joined to any trace the caller sent, and
// marks it failed when the handler answers with a 5xx.
func Middleware(tracer oteltrace.Tracer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))
			ctx, span := tracer.Start(ctx, fmt.Sprintf("[%s] %s", req.Method, c.Path()),
				oteltrace.WithSpanKind(oteltrace.SpanKindServer),
				oteltrace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(req.Method),
					semconv.HTTPRoute(c.Path()),
				),
			)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := c.Response().Status
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			return err
		}
	}
}
