package cyclequota

import (
	"context"
	"time"

	"golang.org/x/text/language"
)

// Stable machine-readable reason codes carried in deny payloads.
const (
	// ReasonQuotaExceeded means the tenant reached its usage limit for the
	// current cycle.
	ReasonQuotaExceeded = "quota_exceeded"

	// ReasonUsageUnavailable means the usage counter failed and the gate is
	// configured to fail closed.
	ReasonUsageUnavailable = "usage_unavailable"
)

// FailurePolicy decides what a check does when the usage counter fails.
type FailurePolicy int

const (
	// FailOpen treats the count as zero on counter errors, silently
	// permitting usage during storage outages. This matches the historical
	// behavior of the platform.
	FailOpen FailurePolicy = iota

	// FailClosed denies on counter errors with reason ReasonUsageUnavailable.
	FailClosed
)

func (p FailurePolicy) String() string {
	if p == FailClosed {
		return "fail_closed"
	}
	return "fail_open"
}

// Denial is the structured error payload of a denied decision.
type Denial struct {
	// ReasonCode is a stable machine-readable code (ReasonQuotaExceeded or
	// ReasonUsageUnavailable).
	ReasonCode string

	// Message is a localized human-readable explanation built from the
	// cycle's period description.
	Message string
}

// Decision is the result of a quota check. It is stateless and recomputed on
// every call; callers get the cycle metadata either way so "X remaining,
// resets in N days" needs no second lookup.
type Decision struct {
	Allowed    bool
	UsageCount int

	// UsageLimit mirrors the tenant config; nil means unlimited.
	UsageLimit *int

	// Remaining is the usage left in the current cycle; nil when unlimited.
	Remaining *int

	Cycle CycleInfo

	// Denial is set only when Allowed is false.
	Denial *Denial
}

// GateConfig holds quota gate configuration.
type GateConfig struct {
	// Counter is the usage counter collaborator (required).
	Counter UsageCounter

	// Policy decides fail-open vs fail-closed on counter errors
	// (default: FailOpen).
	Policy FailurePolicy

	// Locale selects the language of deny messages (default: English).
	Locale language.Tag

	// Logger is used for structured logging (default: NoopLogger).
	Logger Logger

	// Metrics is used for tracking checks (default: NoopMetrics).
	Metrics Metrics

	// Now overrides the clock, e.g. for tests (default: time.Now).
	Now func() time.Time
}

// Gate orchestrates cycle resolution and usage counting into an allow/deny
// decision. Checks are read-only: the caller records the usage event after a
// successful action and rejects the request when Allowed is false. Counting
// and recording are two uncoordinated steps, so concurrent requests can
// overshoot the limit by a small margin; that soft overshoot is accepted.
type Gate struct {
	counter UsageCounter
	policy  FailurePolicy
	locale  language.Tag
	logger  Logger
	metrics Metrics
	now     func() time.Time
}

// NewGate creates a quota gate with the given configuration.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Counter == nil {
		return nil, ErrCounterRequired
	}
	if cfg.Logger == nil {
		cfg.Logger = &NoopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NoopMetrics{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Locale == language.Und {
		cfg.Locale = language.English
	}
	return &Gate{
		counter: cfg.Counter,
		policy:  cfg.Policy,
		locale:  cfg.Locale,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}, nil
}

// Check evaluates the tenant's quota for the current instant.
func (g *Gate) Check(ctx context.Context, tenantID string, cfg CycleConfig) (*Decision, error) {
	return g.CheckAt(ctx, tenantID, cfg, g.now())
}

// CheckAt evaluates the tenant's quota as of a given instant. Reaching the
// limit denies: a tenant with usage count equal to the limit gets no further
// usage until the next reset.
func (g *Gate) CheckAt(ctx context.Context, tenantID string, cfg CycleConfig, now time.Time) (*Decision, error) {
	started := time.Now()

	info, err := Resolve(cfg, now)
	if err != nil {
		return nil, err
	}

	start, end := info.CountRange()
	queryStart := time.Now()
	count, err := g.counter.Count(ctx, tenantID, start, end)
	g.metrics.RecordCountQuery(time.Since(queryStart), err)
	if err != nil {
		g.metrics.RecordCounterFallback(g.policy.String())
		g.logger.Warn("usage counter failed",
			Field{Key: "tenant", Value: tenantID},
			Field{Key: "policy", Value: g.policy.String()},
			Field{Key: "error", Value: err.Error()},
		)
		// An unlimited tenant has no quota to protect, so the failure
		// policy never applies to it.
		if g.policy == FailClosed && !cfg.Unlimited() {
			decision := g.deny(tenantID, 0, cfg, info, ReasonUsageUnavailable, unavailableMessage(g.locale))
			g.metrics.RecordCheck(tenantID, false, time.Since(started))
			return decision, nil
		}
		// Fail open: treat the count as zero and allow.
		count = 0
	}

	decision := &Decision{
		Allowed:    true,
		UsageCount: count,
		UsageLimit: cfg.UsageLimit,
		Cycle:      info,
	}

	if cfg.Unlimited() {
		g.metrics.RecordCheck(tenantID, true, time.Since(started))
		return decision, nil
	}

	limit := *cfg.UsageLimit
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	decision.Remaining = &remaining

	if count >= limit {
		decision = g.deny(tenantID, count, cfg, info, ReasonQuotaExceeded,
			denyMessage(limit, info, cfg.StartDate == nil, g.locale))
		decision.Remaining = &remaining
		g.logger.Info("quota exceeded",
			Field{Key: "tenant", Value: tenantID},
			Field{Key: "count", Value: count},
			Field{Key: "limit", Value: limit},
			Field{Key: "cycle", Value: info.CycleNumber},
			Field{Key: "nextReset", Value: info.NextReset},
		)
	}

	g.metrics.RecordCheck(tenantID, decision.Allowed, time.Since(started))
	return decision, nil
}

func (g *Gate) deny(tenantID string, count int, cfg CycleConfig, info CycleInfo, reason, message string) *Decision {
	g.metrics.RecordDenial(tenantID, reason)
	return &Decision{
		Allowed:    false,
		UsageCount: count,
		UsageLimit: cfg.UsageLimit,
		Cycle:      info,
		Denial: &Denial{
			ReasonCode: reason,
			Message:    message,
		},
	}
}
