// Package prommetrics provides a Prometheus implementation of the
// billing.Metrics interface.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements billing.Metrics using Prometheus collectors.
type Metrics struct {
	webhookEvents     *prometheus.CounterVec
	webhookDuration   *prometheus.HistogramVec
	webhookErrors     *prometheus.CounterVec
	tenantSyncs       *prometheus.CounterVec
	tenantSyncSeconds *prometheus.HistogramVec
	cycleResets       *prometheus.CounterVec
	apiCalls          *prometheus.CounterVec
	apiCallSeconds    *prometheus.HistogramVec
}

// NewMetrics creates billing metrics registered on the given registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		webhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_webhook_events_total",
			Help:      "Webhook events received, by provider, type, and outcome.",
		}, []string{"provider", "event_type", "status"}),
		webhookDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "billing_webhook_processing_seconds",
			Help:      "Webhook processing duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "event_type"}),
		webhookErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_webhook_errors_total",
			Help:      "Webhook processing errors, by provider and error type.",
		}, []string{"provider", "error_type"}),
		tenantSyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_tenant_syncs_total",
			Help:      "Tenant reconciliation runs, by provider and outcome.",
		}, []string{"provider", "status"}),
		tenantSyncSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "billing_tenant_sync_seconds",
			Help:      "Tenant reconciliation duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		cycleResets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_cycle_resets_total",
			Help:      "Cycle anchor resets triggered by billing events.",
		}, []string{"provider", "reason"}),
		apiCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_api_calls_total",
			Help:      "Provider API calls, by endpoint and status.",
		}, []string{"provider", "endpoint", "status"}),
		apiCallSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "billing_api_call_seconds",
			Help:      "Provider API call duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "endpoint"}),
	}
}

// DefaultMetrics creates billing metrics on the default Prometheus registry.
func DefaultMetrics(namespace string) *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}

func (m *Metrics) RecordWebhookEvent(provider, eventType, status string) {
	m.webhookEvents.WithLabelValues(provider, eventType, status).Inc()
}

func (m *Metrics) RecordWebhookProcessingDuration(provider, eventType string, duration time.Duration) {
	m.webhookDuration.WithLabelValues(provider, eventType).Observe(duration.Seconds())
}

func (m *Metrics) RecordWebhookError(provider, errorType string) {
	m.webhookErrors.WithLabelValues(provider, errorType).Inc()
}

func (m *Metrics) RecordTenantSync(provider, status string) {
	m.tenantSyncs.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) RecordTenantSyncDuration(provider string, duration time.Duration) {
	m.tenantSyncSeconds.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordCycleReset(provider, reason string) {
	m.cycleResets.WithLabelValues(provider, reason).Inc()
}

func (m *Metrics) RecordAPICall(provider, endpoint, status string) {
	m.apiCalls.WithLabelValues(provider, endpoint, status).Inc()
}

func (m *Metrics) RecordAPICallDuration(provider, endpoint string, duration time.Duration) {
	m.apiCallSeconds.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
}
