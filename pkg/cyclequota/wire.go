package cyclequota

import (
	"encoding/json"
	"time"
)

// Wire representation of a decision, shared by the HTTP middleware deny
// responses and the usage API. Timestamps are RFC 3339 in UTC.

type cycleInfoWire struct {
	CycleNumber         int       `json:"cycleNumber"`
	CurrentCycleStart   time.Time `json:"currentCycleStart"`
	CurrentCycleEnd     time.Time `json:"currentCycleEnd"`
	NextReset           time.Time `json:"nextReset"`
	DaysRemaining       int       `json:"daysRemaining"`
	CycleDurationMonths int       `json:"cycleDurationMonths"`
}

type denialWire struct {
	ReasonCode string `json:"reasonCode"`
	Message    string `json:"message"`
}

type decisionWire struct {
	Allowed    bool          `json:"allowed"`
	UsageCount int           `json:"usageCount"`
	UsageLimit *int          `json:"usageLimit"`
	Remaining  *int          `json:"remaining,omitempty"`
	CycleInfo  cycleInfoWire `json:"cycleInfo"`
	Error      *denialWire   `json:"error"`
}

// MarshalJSON encodes the cycle info in its documented wire shape.
func (ci CycleInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(cycleInfoWire{
		CycleNumber:         ci.CycleNumber,
		CurrentCycleStart:   ci.CurrentCycleStart,
		CurrentCycleEnd:     ci.CurrentCycleEnd,
		NextReset:           ci.NextReset,
		DaysRemaining:       ci.DaysRemaining,
		CycleDurationMonths: ci.Duration.Months(),
	})
}

// MarshalJSON encodes the decision in its documented wire shape. The error
// field is always present, null when allowed.
func (d Decision) MarshalJSON() ([]byte, error) {
	w := decisionWire{
		Allowed:    d.Allowed,
		UsageCount: d.UsageCount,
		UsageLimit: d.UsageLimit,
		Remaining:  d.Remaining,
		CycleInfo: cycleInfoWire{
			CycleNumber:         d.Cycle.CycleNumber,
			CurrentCycleStart:   d.Cycle.CurrentCycleStart,
			CurrentCycleEnd:     d.Cycle.CurrentCycleEnd,
			NextReset:           d.Cycle.NextReset,
			DaysRemaining:       d.Cycle.DaysRemaining,
			CycleDurationMonths: d.Cycle.Duration.Months(),
		},
	}
	if d.Denial != nil {
		w.Error = &denialWire{
			ReasonCode: d.Denial.ReasonCode,
			Message:    d.Denial.Message,
		}
	}
	return json.Marshal(w)
}
