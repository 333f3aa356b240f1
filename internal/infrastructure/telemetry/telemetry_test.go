package telemetry

import (
	"context"
	"testing"

	"github.com/grafana/pyroscope-go"

	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, config.TelemetryConfig{ServiceName: "ventas"}, "v1", zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Meter.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.False(t, p.Profiler.IsEnabled())
	assert.NotNil(t, p.MeterProvider())
	assert.NotNil(t, p.Tracer.Tracer("test"))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.TelemetryConfig{
		Enabled:           true,
		ServiceName:       "ventas",
		CollectorEndpoint: "otel:4317",
		Insecure:          true,
		SamplingRatio:     0.5,
	}, "abc-20260101")

	assert.Equal(t, Config{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		Insecure:          true,
		SamplingRatio:     0.5,
		ServiceName:       "ventas",
		ServiceVersion:    "abc-20260101",
	}, cfg)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestLoggerProvider_Bridge_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)

	base := zap.NewExample()
	assert.Same(t, base, lp.Bridge(base, "ventas", zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: core, minLevel: zapcore.WarnLevel}
	l := zap.New(filtered).With(zap.String("component", "offline"))

	l.Info("dropped")
	l.Warn("kept")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "kept", recorded.All()[0].Message)
	assert.Equal(t, "offline", recorded.All()[0].ContextMap()["component"])
}

func TestStartSpan_RecordError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer(TracerName).Start(context.Background(), "outer")
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, assert.AnError)
	RecordError(span, nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "outer", spans[0].Name)
	assert.Len(t, spans[0].Events, 1)

	_, noop := StartSpan(context.Background(), "global", attribute.String("k", "v"))
	noop.End()
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop()))

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewProfiler(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		p, err := NewProfiler(config.ProfilingConfig{}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled needs a server", func(t *testing.T) {
		_, err := NewProfiler(config.ProfilingConfig{Enabled: true, ApplicationName: "ventas"}, zap.NewNop())
		assert.ErrorContains(t, err, "server address")
	})

	t.Run("enabled needs a name", func(t *testing.T) {
		_, err := NewProfiler(config.ProfilingConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
		assert.ErrorContains(t, err, "application name")
	})

	t.Run("unknown type fails before starting", func(t *testing.T) {
		_, err := NewProfiler(config.ProfilingConfig{
			Enabled:         true,
			ServerAddress:   "http://pyroscope:4040",
			ApplicationName: "ventas",
			ProfileTypes:    []string{"cpu", "heap"},
		}, zap.NewNop())
		assert.ErrorContains(t, err, `"heap"`)
	})
}

func TestParseProfileTypes(t *testing.T) {
	types, err := ParseProfileTypes([]string{" CPU ", "mutex", "cpu", ""})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
	}, types)

	types, err = ParseProfileTypes(nil)
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	disabled, err := NewTracerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, disabled.EnableSpanProfiles())
	assert.False(t, disabled.SpanProfilesEnabled())

	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	sdk := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })
	tp := &TracerProvider{provider: sdk, logger: zap.NewNop()}

	assert.True(t, tp.EnableSpanProfiles())
	assert.True(t, tp.EnableSpanProfiles())
	assert.True(t, tp.SpanProfilesEnabled())
	assert.Same(t, tp.profiled, otel.GetTracerProvider())

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}
