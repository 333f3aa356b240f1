package telemetry

import (
	"context"
	"errors"

	"github.com/Erickgiber/debts-my-clients/internal/infrastructure/config"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Providers bundles the three signal pipelines and the profiler
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// ConfigFrom maps application configuration to telemetry configuration
func ConfigFrom(cfg config.TelemetryConfig, serviceVersion string) Config {
	return Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		Insecure:          cfg.Insecure,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    serviceVersion,
	}
}

// Setup starts tracing and metrics when telemetry is enabled, and log
// export when logs_enabled is also set. Profiling is switched on by its own
// section and links to spans only when tracing runs too. Partially started
// pipelines are shut down on failure.
func Setup(ctx context.Context, cfg config.TelemetryConfig, serviceVersion string, logger *zap.Logger) (*Providers, error) {
	tcfg := ConfigFrom(cfg, serviceVersion)
	p := &Providers{}

	var err error
	if p.Tracer, err = NewTracerProvider(ctx, tcfg, logger); err != nil {
		return nil, err
	}
	if p.Meter, err = NewMeterProvider(ctx, tcfg, cfg.MetricsInterval, logger); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	logsCfg := tcfg
	logsCfg.Enabled = cfg.Enabled && cfg.LogsEnabled
	if p.Logs, err = NewLoggerProvider(ctx, logsCfg, logger); err != nil {
		_ = p.Meter.Shutdown(ctx)
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	if p.Profiler, err = NewProfiler(cfg.Profiling, logger); err != nil {
		_ = p.Logs.Shutdown(ctx)
		_ = p.Meter.Shutdown(ctx)
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		p.Tracer.EnableSpanProfiles()
	}
	return p, nil
}

// MeterProvider returns the provider for application instruments
func (p *Providers) MeterProvider() metric.MeterProvider {
	return p.Meter.Provider()
}

// Shutdown stops the profiler then flushes every pipeline, logs last
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Profiler.Stop(),
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Logs.Shutdown(ctx),
	)
}
