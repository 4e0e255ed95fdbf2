package billing

import (
	"net/http"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// Plan is the quota shape a subscription price grants: how long the billing
// cycle runs and how many usage events it allows.
type Plan struct {
	// Duration is the cycle length in months.
	Duration cyclequota.CycleDuration

	// UsageLimit is the events allowed per cycle; nil means unlimited.
	UsageLimit *int
}

// Config holds provider-independent billing configuration.
type Config struct {
	// Store persists tenant cycle configs (required).
	Store CycleStore

	// PriceMapping maps provider price IDs to plans (required).
	PriceMapping map[string]Plan

	// DefaultPlan applies when a subscription ends. Its zero value means
	// calendar-month cycles with no start date; set UsageLimit for a free
	// tier cap.
	DefaultPlan Plan

	// HTTPClient overrides the client used for provider API calls (optional).
	HTTPClient *http.Client

	// Metrics records provider operations (optional).
	Metrics Metrics
}

// Validate checks the provider-independent configuration.
func (c Config) Validate() error {
	if c.Store == nil {
		return ErrProviderNotConfigured
	}
	if len(c.PriceMapping) == 0 {
		return ErrProviderNotConfigured
	}
	return nil
}
