package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scoring pipeline.
type Metrics struct {
	ReportsScored     *prometheus.CounterVec
	RegistryFallbacks *prometheus.CounterVec
	IntelLookups      *prometheus.CounterVec
	IntelDuration     prometheus.Histogram
	ResolvedPersons   prometheus.Gauge
	SkippedRecords    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ReportsScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigia_reports_scored_total",
			Help: "Risk reports produced, labeled by resulting risk level",
		}, []string{"level"}),
		RegistryFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigia_registry_fallbacks_total",
			Help: "Registry loads that fell through to a secondary source",
		}, []string{"registry", "source"}),
		IntelLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigia_intel_lookups_total",
			Help: "External intelligence lookups, labeled by outcome",
		}, []string{"source", "outcome"}),
		IntelDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigia_intel_lookup_duration_seconds",
			Help:    "Latency of external intelligence lookups",
			Buckets: prometheus.DefBuckets,
		}),
		ResolvedPersons: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vigia_resolved_persons",
			Help: "Canonical persons produced by the last resolution pass",
		}),
		SkippedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigia_skipped_records_total",
			Help: "Supplier records skipped during resolution as malformed",
		}),
	}
}

// RecordReport counts a completed report by level. Nil-safe so the engine
// works without metrics in tests.
func (m *Metrics) RecordReport(level string) {
	if m == nil {
		return
	}
	m.ReportsScored.WithLabelValues(level).Inc()
}

// RecordRegistryFallback counts a load served by a non-primary source.
func (m *Metrics) RecordRegistryFallback(registry, source string) {
	if m == nil {
		return
	}
	m.RegistryFallbacks.WithLabelValues(registry, source).Inc()
}

// RecordResolution captures the outcome of a resolution pass: the gauge
// tracks the current batch's person count, the counter accumulates skips.
func (m *Metrics) RecordResolution(persons, skipped int) {
	if m == nil {
		return
	}
	m.ResolvedPersons.Set(float64(persons))
	m.SkippedRecords.Add(float64(skipped))
}

// RecordIntelLookup observes one external lookup.
func (m *Metrics) RecordIntelLookup(source, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IntelLookups.WithLabelValues(source, outcome).Inc()
	m.IntelDuration.Observe(elapsed.Seconds())
}
