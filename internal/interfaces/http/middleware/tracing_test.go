package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func findSpan(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func tracedEngine(cfg TracingConfig, status int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(cfg), TracingAttributeInjector(), SpanErrorMarker())
	handler := func(c *gin.Context) {
		c.Status(status)
	}
	router.GET("/sw.js", handler)
	router.GET("/sw/events", handler)
	router.GET("/api/v1/sales/:id", handler)
	return router
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedEngine(TracingConfig{Enabled: false}, http.StatusOK)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sw.js", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracingWithConfig_SpanAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedEngine(DefaultTracingConfig(), http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/sw.js?v=abc-123", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	span := findSpan(sr.Ended(), "GET /sw.js")
	require.NotNil(t, span)
	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", v.AsString())
	v, ok = spanAttr(span, "sw.version")
	require.True(t, ok)
	assert.Equal(t, "abc-123", v.AsString())
}

func TestTracingWithConfig_SkipPaths(t *testing.T) {
	sr := setupTestTracer(t)
	cfg := DefaultTracingConfig()
	cfg.SkipPaths = []string{"/sw/events"}
	router := tracedEngine(cfg, http.StatusOK)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sw/events", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sw.js", nil))

	assert.Nil(t, findSpan(sr.Ended(), "GET /sw/events"))
	assert.NotNil(t, findSpan(sr.Ended(), "GET /sw.js"))
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		status  int
		code    codes.Code
		message string
	}{
		{http.StatusOK, codes.Unset, ""},
		{http.StatusBadRequest, codes.Error, "Client Error"},
		{http.StatusNotFound, codes.Error, "Not Found"},
		{http.StatusConflict, codes.Error, "Conflict"},
		{http.StatusServiceUnavailable, codes.Error, ""},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sr := setupTestTracer(t)
			router := tracedEngine(DefaultTracingConfig(), tt.status)
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sales/42", nil))

			span := findSpan(sr.Ended(), "GET /api/v1/sales/:id")
			require.NotNil(t, span)
			assert.Equal(t, tt.code, span.Status().Code)
			if tt.status < http.StatusInternalServerError {
				// otelgin rewrites the description of server errors
				assert.Equal(t, tt.message, span.Status().Description)
			}
		})
	}
}

func TestSpanErrorMarker_WithoutSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
