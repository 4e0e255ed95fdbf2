package cyclequota

import "time"

// Metrics defines the interface for tracking quota checks and counter health.
type Metrics interface {
	// RecordCheck records a quota check decision and its duration.
	RecordCheck(tenantID string, allowed bool, duration time.Duration)

	// RecordDenial records a denied check with its reason code.
	RecordDenial(tenantID, reasonCode string)

	// RecordCountQuery records the duration and status of a usage count query.
	RecordCountQuery(duration time.Duration, err error)

	// RecordCounterFallback records a counter failure absorbed by policy
	// ("fail_open" or "fail_closed").
	RecordCounterFallback(policy string)

	// RecordCacheHit records a count-cache hit.
	RecordCacheHit()

	// RecordCacheMiss records a count-cache miss.
	RecordCacheMiss()
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordCheck(tenantID string, allowed bool, duration time.Duration) {}
func (n *NoopMetrics) RecordDenial(tenantID, reasonCode string)                          {}
func (n *NoopMetrics) RecordCountQuery(duration time.Duration, err error)                {}
func (n *NoopMetrics) RecordCounterFallback(policy string)                               {}
func (n *NoopMetrics) RecordCacheHit()                                                   {}
func (n *NoopMetrics) RecordCacheMiss()                                                  {}
