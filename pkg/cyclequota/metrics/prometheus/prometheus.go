package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements cyclequota.Metrics using Prometheus.
type Metrics struct {
	checksTotal         *prometheus.CounterVec
	checkDuration       prometheus.Histogram
	denialsTotal        *prometheus.CounterVec
	countQueryDuration  prometheus.Histogram
	countQueryErrors    prometheus.Counter
	counterFallbacks    *prometheus.CounterVec
	countCacheHitsTotal prometheus.Counter
	countCacheMissTotal prometheus.Counter
}

// NewMetrics creates a new Prometheus metrics implementation.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_checks_total",
			Help:      "Total number of quota checks by decision.",
		}, []string{"allowed"}),

		checkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quota_check_duration_seconds",
			Help:      "Latency of quota checks.",
			Buckets:   prometheus.DefBuckets,
		}),

		denialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_denials_total",
			Help:      "Total number of denied checks by reason code.",
		}, []string{"reason"}),

		countQueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usage_count_query_duration_seconds",
			Help:      "Latency of usage count queries.",
			Buckets:   prometheus.DefBuckets,
		}),

		countQueryErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_count_query_errors_total",
			Help:      "Total number of failed usage count queries.",
		}),

		counterFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_counter_fallbacks_total",
			Help:      "Total number of counter failures absorbed by policy.",
		}, []string{"policy"}),

		countCacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_count_cache_hits_total",
			Help:      "Total number of count-cache hits.",
		}),

		countCacheMissTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_count_cache_misses_total",
			Help:      "Total number of count-cache misses.",
		}),
	}
}

func (m *Metrics) RecordCheck(_ string, allowed bool, duration time.Duration) {
	label := "false"
	if allowed {
		label = "true"
	}
	m.checksTotal.WithLabelValues(label).Inc()
	m.checkDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordDenial(_, reasonCode string) {
	m.denialsTotal.WithLabelValues(reasonCode).Inc()
}

func (m *Metrics) RecordCountQuery(duration time.Duration, err error) {
	m.countQueryDuration.Observe(duration.Seconds())
	if err != nil {
		m.countQueryErrors.Inc()
	}
}

func (m *Metrics) RecordCounterFallback(policy string) {
	m.counterFallbacks.WithLabelValues(policy).Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.countCacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.countCacheMissTotal.Inc()
}

// DefaultMetrics returns a Metrics implementation using the default
// Prometheus registerer.
func DefaultMetrics(namespace string) *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
