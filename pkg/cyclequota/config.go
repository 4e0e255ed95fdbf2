package cyclequota

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// CycleDuration is the length of a billing cycle in months. Only divisors of
// 12 are representable as named constants; anything else fails validation and
// never reaches the resolver. The divisor property is what guarantees that
// cycle boundaries return to the original day-of-month after exactly one year.
type CycleDuration int

const (
	// DurationMonthly is a 1-month cycle
	DurationMonthly CycleDuration = 1
	// DurationBimonthly is a 2-month cycle
	DurationBimonthly CycleDuration = 2
	// DurationQuarterly is a 3-month cycle
	DurationQuarterly CycleDuration = 3
	// DurationFourMonth is a 4-month cycle
	DurationFourMonth CycleDuration = 4
	// DurationSemiAnnual is a 6-month cycle
	DurationSemiAnnual CycleDuration = 6
	// DurationAnnual is a 12-month cycle
	DurationAnnual CycleDuration = 12
)

// Durations lists the valid cycle durations in ascending order, for UI
// enumeration and config validation.
var Durations = []CycleDuration{
	DurationMonthly,
	DurationBimonthly,
	DurationQuarterly,
	DurationFourMonth,
	DurationSemiAnnual,
	DurationAnnual,
}

// Valid reports whether d is one of the six supported durations.
func (d CycleDuration) Valid() bool {
	switch d {
	case DurationMonthly, DurationBimonthly, DurationQuarterly,
		DurationFourMonth, DurationSemiAnnual, DurationAnnual:
		return true
	default:
		return false
	}
}

// Months returns the duration as a plain month count.
func (d CycleDuration) Months() int {
	return int(d)
}

// ParseCycleDuration validates a raw month count from config or API input.
// This is the only entry point for untrusted duration values; Resolve assumes
// it never receives an invalid duration.
func ParseCycleDuration(months int) (CycleDuration, error) {
	d := CycleDuration(months)
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %d months (valid: 1, 2, 3, 4, 6, 12)", ErrInvalidDuration, months)
	}
	return d, nil
}

// DurationOption is a {value, label} pair for settings UIs.
type DurationOption struct {
	Months int    `json:"months"`
	Label  string `json:"label"`
}

// DurationOptions returns the selectable cycle durations with labels in the
// closest supported locale.
func DurationOptions(tag language.Tag) []DurationOption {
	opts := make([]DurationOption, 0, len(Durations))
	for _, d := range Durations {
		opts = append(opts, DurationOption{Months: d.Months(), Label: d.Label(tag)})
	}
	return opts
}

// CycleConfig is a tenant's billing-cycle configuration. It is owned by the
// tenant record and read-only to this engine.
type CycleConfig struct {
	// StartDate is the first day of cycle #1 (date-only; the time component
	// is ignored). Nil means the tenant never opted into custom cycles and
	// falls back to natural calendar months starting on the 1st.
	StartDate *time.Time

	// Duration is the cycle length in months. Zero is treated as monthly for
	// backward compatibility with tenants that only set a start date.
	Duration CycleDuration

	// UsageLimit is the maximum number of usage events per cycle.
	// Nil means unlimited.
	UsageLimit *int
}

// Validate rejects configurations that must never reach the resolver.
// Call this at configuration-write time.
func (c CycleConfig) Validate() error {
	if c.Duration != 0 && !c.Duration.Valid() {
		return fmt.Errorf("%w: %d months (valid: 1, 2, 3, 4, 6, 12)", ErrInvalidDuration, int(c.Duration))
	}
	if c.UsageLimit != nil && *c.UsageLimit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, *c.UsageLimit)
	}
	return nil
}

// Unlimited reports whether the tenant has no usage limit configured.
func (c CycleConfig) Unlimited() bool {
	return c.UsageLimit == nil
}

// ResetToNow returns a copy of the config with the cycle anchor moved to now,
// restarting cycle numbering at 1 with a fresh full-length period. This is
// the documented mechanism for mid-period plan changes.
func (c CycleConfig) ResetToNow(now time.Time) CycleConfig {
	start := startOfDayUTC(now)
	c.StartDate = &start
	return c
}
