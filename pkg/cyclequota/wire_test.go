package cyclequota

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDecisionJSONShape(t *testing.T) {
	limit := 100
	remaining := 0
	d := Decision{
		Allowed:    false,
		UsageCount: 100,
		UsageLimit: &limit,
		Remaining:  &remaining,
		Cycle: CycleInfo{
			CycleNumber:       4,
			CurrentCycleStart: date(2025, 10, 15),
			CurrentCycleEnd:   date(2026, 1, 14),
			NextReset:         date(2026, 1, 15),
			DaysRemaining:     30,
			Duration:          DurationQuarterly,
			AnchorDay:         15,
		},
		Denial: &Denial{
			ReasonCode: ReasonQuotaExceeded,
			Message:    "limit reached",
		},
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}

	if got["allowed"] != false {
		t.Errorf("allowed = %v, want false", got["allowed"])
	}
	if got["usageCount"] != float64(100) {
		t.Errorf("usageCount = %v, want 100", got["usageCount"])
	}
	if got["usageLimit"] != float64(100) {
		t.Errorf("usageLimit = %v, want 100", got["usageLimit"])
	}

	cycle, ok := got["cycleInfo"].(map[string]any)
	if !ok {
		t.Fatalf("cycleInfo missing: %s", raw)
	}
	if cycle["cycleNumber"] != float64(4) {
		t.Errorf("cycleNumber = %v, want 4", cycle["cycleNumber"])
	}
	if cycle["cycleDurationMonths"] != float64(3) {
		t.Errorf("cycleDurationMonths = %v, want 3", cycle["cycleDurationMonths"])
	}
	if !strings.HasPrefix(cycle["nextReset"].(string), "2026-01-15T00:00:00") {
		t.Errorf("nextReset = %v", cycle["nextReset"])
	}

	errObj, ok := got["error"].(map[string]any)
	if !ok {
		t.Fatalf("error missing: %s", raw)
	}
	if errObj["reasonCode"] != ReasonQuotaExceeded {
		t.Errorf("reasonCode = %v", errObj["reasonCode"])
	}
	if errObj["message"] != "limit reached" {
		t.Errorf("message = %v", errObj["message"])
	}
}

func TestDecisionJSONAllowed(t *testing.T) {
	d := Decision{
		Allowed:    true,
		UsageCount: 2,
		Cycle: CycleInfo{
			CycleNumber:       1,
			CurrentCycleStart: date(2025, 6, 1),
			CurrentCycleEnd:   date(2025, 6, 30),
			NextReset:         date(2025, 7, 1),
			DaysRemaining:     14,
			Duration:          DurationMonthly,
			AnchorDay:         1,
		},
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}

	if v, present := got["error"]; !present || v != nil {
		t.Errorf("error = %v, want explicit null", v)
	}
	if v, present := got["usageLimit"]; !present || v != nil {
		t.Errorf("usageLimit = %v, want explicit null", v)
	}
	if _, present := got["remaining"]; present {
		t.Errorf("remaining should be omitted when unlimited")
	}
}

func TestDecisionJSONTimesUTC(t *testing.T) {
	d := Decision{
		Allowed: true,
		Cycle: CycleInfo{
			CurrentCycleStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			CurrentCycleEnd:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			NextReset:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			Duration:          DurationMonthly,
		},
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"2025-04-01T00:00:00Z"`) {
		t.Errorf("expected UTC RFC3339 nextReset, got %s", raw)
	}
}
