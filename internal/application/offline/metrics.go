package offline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Erickgiber/debts-my-clients/offline"

// interceptorMetrics counts how requests were served.
type interceptorMetrics struct {
	served    metric.Int64Counter
	refreshes metric.Int64Counter
}

func newInterceptorMetrics(provider metric.MeterProvider) *interceptorMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	// Errors only occur for invalid instrument names; the returned
	// instrument is still usable.
	served, _ := meter.Int64Counter("offline.requests.served",
		metric.WithDescription("Intercepted requests by serving source"),
		metric.WithUnit("{request}"),
	)
	refresh, _ := meter.Int64Counter("offline.cache.refreshes",
		metric.WithDescription("Background cache refreshes by outcome"),
		metric.WithUnit("{refresh}"),
	)
	return &interceptorMetrics{served: served, refreshes: refresh}
}

func (m *interceptorMetrics) recordServed(ctx context.Context, kind, source string) {
	m.served.Add(ctx, 1, metric.WithAttributes(
		attribute.String("request.kind", kind),
		attribute.String("source", source),
	))
}

func (m *interceptorMetrics) recordRefresh(ctx context.Context, outcome string) {
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
