package tracing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestInit_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := Init(context.Background(), "feed-test", ExporterStdout, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"work"`)
	assert.Contains(t, buf.String(), "feed-test")
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), "feed-test", "jaeger", nil)
	assert.ErrorContains(t, err, "unknown trace exporter")
}

func TestMiddleware_ExtractsTraceParent(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var got trace.SpanContext
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, got.IsRemote())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", got.TraceID().String())
}
