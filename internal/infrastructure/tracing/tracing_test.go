package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestInitTracing_NoCollector(t *testing.T) {
	tp, err := InitTracing(Options{Environment: "test"})

	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestSampler(t *testing.T) {
	testCases := []struct {
		Name     string
		Ratio    float64
		Expected string
	}{
		{Name: "unset samples every root", Ratio: 0, Expected: "root:AlwaysOnSampler"},
		{Name: "full", Ratio: 1, Expected: "root:AlwaysOnSampler"},
		{Name: "fraction", Ratio: 0.25, Expected: "root:TraceIDRatioBased{0.25}"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			desc := sampler(tc.Ratio).Description()
			assert.Contains(t, desc, "ParentBased{")
			assert.Contains(t, desc, tc.Expected)
		})
	}
}

func TestServiceResource(t *testing.T) {
	res := serviceResource("production")

	assert.Contains(t, res.Attributes(), semconv.ServiceNameKey.String(ServiceName))
	assert.Contains(t, res.Attributes(), semconv.DeploymentEnvironment("production"))
	assert.Len(t, serviceResource("").Attributes(), 1)
}

func TestMiddleware(t *testing.T) {
	const callerTrace = "4bf92f3577b34da6a3ce929d0e0e4736"

	testCases := []struct {
		Name        string
		Status      int
		Traceparent string
		ErrorStatus bool
	}{
		{Name: "continues caller trace", Status: http.StatusOK, Traceparent: "00-" + callerTrace + "-00f067aa0ba902b7-01"},
		{Name: "new root", Status: http.StatusOK},
		{Name: "server error marks span", Status: http.StatusInternalServerError, ErrorStatus: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

			var handlerSpan oteltrace.SpanContext
			e := echo.New()
			e.Use(Middleware(tp.Tracer(ServiceName)))
			e.POST("/api/v1/orders", func(c echo.Context) error {
				handlerSpan = oteltrace.SpanContextFromContext(c.Request().Context())
				return c.NoContent(tc.Status)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
			if tc.Traceparent != "" {
				req.Header.Set("traceparent", tc.Traceparent)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			span := spans[0]

			assert.Equal(t, "[POST] /api/v1/orders", span.Name())
			assert.Equal(t, oteltrace.SpanKindServer, span.SpanKind())
			assert.Equal(t, span.SpanContext().SpanID(), handlerSpan.SpanID())
			assert.Contains(t, span.Attributes(), semconv.HTTPResponseStatusCode(tc.Status))

			if tc.Traceparent != "" {
				assert.Equal(t, callerTrace, span.SpanContext().TraceID().String())
				assert.True(t, span.Parent().IsRemote())
			} else {
				assert.False(t, span.Parent().IsValid())
			}

			if tc.ErrorStatus {
				assert.Equal(t, codes.Error, span.Status().Code)
			} else {
				assert.Equal(t, codes.Unset, span.Status().Code)
			}
		})
	}
}
