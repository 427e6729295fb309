package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// meterName is the instrumentation scope for all notepolish metrics.
const meterName = "github.com/jonathan/notepolish"

// Metrics holds the OpenTelemetry instruments used by the enhancement pipeline.
type Metrics struct {
	// EnhanceDuration tracks end-to-end Rephrase latency.
	EnhanceDuration metric.Float64Histogram

	// GeneratorDuration tracks the generative model call latency.
	GeneratorDuration metric.Float64Histogram

	// TranscriptionDuration tracks speech-to-text latency.
	TranscriptionDuration metric.Float64Histogram

	// Enhancements counts rephrasing calls by tone, intent and status.
	Enhancements metric.Int64Counter

	// KnowledgeLookups counts knowledge source calls by source and outcome
	// (hit, miss, error).
	KnowledgeLookups metric.Int64Counter

	// QuotaRejections counts requests rejected for an exhausted monthly quota.
	QuotaRejections metric.Int64Counter
}

// latencyBuckets are histogram boundaries in seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates all instruments from the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.EnhanceDuration, err = m.Float64Histogram("notepolish.enhance.duration",
		metric.WithDescription("End-to-end latency of a rephrasing request."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GeneratorDuration, err = m.Float64Histogram("notepolish.generator.duration",
		metric.WithDescription("Latency of the generative model call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("notepolish.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Enhancements, err = m.Int64Counter("notepolish.enhancements",
		metric.WithDescription("Rephrasing requests by tone, intent and status."),
	); err != nil {
		return nil, err
	}
	if met.KnowledgeLookups, err = m.Int64Counter("notepolish.knowledge.lookups",
		metric.WithDescription("Knowledge source lookups by source and outcome."),
	); err != nil {
		return nil, err
	}
	if met.QuotaRejections, err = m.Int64Counter("notepolish.quota.rejections",
		metric.WithDescription("Requests rejected because the monthly quota is exhausted."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level Metrics built from the global meter
// provider. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observability: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// InitPrometheus installs a global meter provider backed by the Prometheus
// exporter and returns the scrape handler plus a shutdown function.
func InitPrometheus() (http.Handler, func(context.Context) error, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// RecordEnhancement records one finished rephrasing request.
func (m *Metrics) RecordEnhancement(ctx context.Context, tone, intent, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tone", tone),
		attribute.String("intent", intent),
		attribute.String("status", status),
	)
	m.Enhancements.Add(ctx, 1, attrs)
	m.EnhanceDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordGeneration records the latency of one generator call.
func (m *Metrics) RecordGeneration(ctx context.Context, provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GeneratorDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordTranscription records the latency of one transcription call.
func (m *Metrics) RecordTranscription(ctx context.Context, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TranscriptionDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordKnowledgeLookup records one knowledge source call.
func (m *Metrics) RecordKnowledgeLookup(ctx context.Context, source, outcome string) {
	if m == nil {
		return
	}
	m.KnowledgeLookups.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordQuotaRejection records one quota rejection.
func (m *Metrics) RecordQuotaRejection(ctx context.Context) {
	if m == nil {
		return
	}
	m.QuotaRejections.Add(ctx, 1)
}
