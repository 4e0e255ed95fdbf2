package prommetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherCounter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		got[l.GetName()] = l.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRecordCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	m.RecordCheck("ws-1", true, 5*time.Millisecond)
	m.RecordCheck("ws-1", true, 5*time.Millisecond)
	m.RecordCheck("ws-2", false, 5*time.Millisecond)

	if got := gatherCounter(t, reg, "test_quota_checks_total", map[string]string{"allowed": "true"}); got != 2 {
		t.Errorf("allowed checks: got %v, want 2", got)
	}
	if got := gatherCounter(t, reg, "test_quota_checks_total", map[string]string{"allowed": "false"}); got != 1 {
		t.Errorf("denied checks: got %v, want 1", got)
	}
}

func TestRecordDenial(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	m.RecordDenial("ws-1", "quota_exceeded")
	m.RecordDenial("ws-1", "usage_unavailable")
	m.RecordDenial("ws-2", "quota_exceeded")

	if got := gatherCounter(t, reg, "test_quota_denials_total", map[string]string{"reason": "quota_exceeded"}); got != 2 {
		t.Errorf("quota_exceeded denials: got %v", got)
	}
}

func TestRecordCountQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	m.RecordCountQuery(10*time.Millisecond, nil)
	m.RecordCountQuery(10*time.Millisecond, errors.New("down"))

	if got := gatherCounter(t, reg, "test_usage_count_query_errors_total", nil); got != 1 {
		t.Errorf("query errors: got %v, want 1", got)
	}
}

func TestRecordCounterFallbackAndCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	m.RecordCounterFallback("fail_open")
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()

	if got := gatherCounter(t, reg, "test_usage_counter_fallbacks_total", map[string]string{"policy": "fail_open"}); got != 1 {
		t.Errorf("fallbacks: got %v", got)
	}
	if got := gatherCounter(t, reg, "test_usage_count_cache_hits_total", nil); got != 2 {
		t.Errorf("cache hits: got %v", got)
	}
	if got := gatherCounter(t, reg, "test_usage_count_cache_misses_total", nil); got != 1 {
		t.Errorf("cache misses: got %v", got)
	}
}
