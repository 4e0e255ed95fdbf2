package cyclequota

import (
	"errors"
	"testing"
	"time"
)

func quarterlyConfig() CycleConfig {
	start := date(2025, 1, 15)
	return CycleConfig{StartDate: &start, Duration: DurationQuarterly}
}

func TestResolve_Quarterly(t *testing.T) {
	cfg := quarterlyConfig()

	tests := []struct {
		name        string
		now         time.Time
		wantNumber  int
		wantStart   time.Time
		wantReset   time.Time
		wantEnd     time.Time
		wantDays    int
		daysBetween [2]int // inclusive bounds when exact value is not pinned
	}{
		{
			name:       "first day of first cycle",
			now:        date(2025, 1, 15),
			wantNumber: 1,
			wantStart:  date(2025, 1, 15),
			wantReset:  date(2025, 4, 15),
			wantEnd:    date(2025, 4, 14),
			wantDays:   90,
		},
		{
			name:        "one month in",
			now:         date(2025, 2, 15),
			wantNumber:  1,
			wantStart:   date(2025, 1, 15),
			wantReset:   date(2025, 4, 15),
			wantEnd:     date(2025, 4, 14),
			daysBetween: [2]int{51, 64},
		},
		{
			name:       "near the end of the first cycle",
			now:        date(2025, 4, 10),
			wantNumber: 1,
			wantStart:  date(2025, 1, 15),
			wantReset:  date(2025, 4, 15),
			wantEnd:    date(2025, 4, 14),
			wantDays:   5,
		},
		{
			name:       "into the second cycle",
			now:        date(2025, 5, 1),
			wantNumber: 2,
			wantStart:  date(2025, 4, 15),
			wantReset:  date(2025, 7, 15),
			wantEnd:    date(2025, 7, 14),
			wantDays:   75,
		},
		{
			name:       "exactly on a boundary belongs to the new cycle",
			now:        date(2025, 4, 15),
			wantNumber: 2,
			wantStart:  date(2025, 4, 15),
			wantReset:  date(2025, 7, 15),
			wantEnd:    date(2025, 7, 14),
			wantDays:   91,
		},
		{
			name:       "one second before a boundary stays in the old cycle",
			now:        time.Date(2025, 4, 14, 23, 59, 59, 0, time.UTC),
			wantNumber: 1,
			wantStart:  date(2025, 1, 15),
			wantReset:  date(2025, 4, 15),
			wantEnd:    date(2025, 4, 14),
			wantDays:   1,
		},
		{
			name:       "now before the start date resolves to cycle 1",
			now:        date(2024, 11, 1),
			wantNumber: 1,
			wantStart:  date(2025, 1, 15),
			wantReset:  date(2025, 4, 15),
			wantEnd:    date(2025, 4, 14),
			wantDays:   165,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Resolve(cfg, tt.now)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if info.CycleNumber != tt.wantNumber {
				t.Errorf("cycleNumber: got %d, want %d", info.CycleNumber, tt.wantNumber)
			}
			if !info.CurrentCycleStart.Equal(tt.wantStart) {
				t.Errorf("start: got %v, want %v", info.CurrentCycleStart, tt.wantStart)
			}
			if !info.NextReset.Equal(tt.wantReset) {
				t.Errorf("nextReset: got %v, want %v", info.NextReset, tt.wantReset)
			}
			if !info.CurrentCycleEnd.Equal(tt.wantEnd) {
				t.Errorf("end: got %v, want %v", info.CurrentCycleEnd, tt.wantEnd)
			}
			if tt.daysBetween != [2]int{} {
				if info.DaysRemaining < tt.daysBetween[0] || info.DaysRemaining > tt.daysBetween[1] {
					t.Errorf("daysRemaining: got %d, want in [%d, %d]", info.DaysRemaining, tt.daysBetween[0], tt.daysBetween[1])
				}
			} else if info.DaysRemaining != tt.wantDays {
				t.Errorf("daysRemaining: got %d, want %d", info.DaysRemaining, tt.wantDays)
			}
			if info.Duration != DurationQuarterly {
				t.Errorf("duration: got %d", info.Duration)
			}
		})
	}
}

func TestResolve_MonthEndRealignment(t *testing.T) {
	// A monthly cycle anchored on Jan 31 clamps through short months and
	// realigns on the 31st of every 31-day month.
	start := date(2025, 1, 31)
	cfg := CycleConfig{StartDate: &start, Duration: DurationMonthly}

	tests := []struct {
		now       time.Time
		wantStart time.Time
		wantReset time.Time
	}{
		{date(2025, 2, 10), date(2025, 1, 31), date(2025, 2, 28)},
		{date(2025, 3, 10), date(2025, 2, 28), date(2025, 3, 31)},
		{date(2025, 4, 10), date(2025, 3, 31), date(2025, 4, 30)},
		{date(2025, 6, 10), date(2025, 5, 31), date(2025, 6, 30)},
		// One year later the boundary is back on Jan 31 exactly.
		{date(2026, 2, 10), date(2026, 1, 31), date(2026, 2, 28)},
	}

	for _, tt := range tests {
		info, err := Resolve(cfg, tt.now)
		if err != nil {
			t.Fatalf("Resolve(%v): %v", tt.now, err)
		}
		if !info.CurrentCycleStart.Equal(tt.wantStart) {
			t.Errorf("at %v: start got %v, want %v", tt.now, info.CurrentCycleStart, tt.wantStart)
		}
		if !info.NextReset.Equal(tt.wantReset) {
			t.Errorf("at %v: nextReset got %v, want %v", tt.now, info.NextReset, tt.wantReset)
		}
	}
}

func TestResolve_YearlyConsistencyAllDurations(t *testing.T) {
	// For every valid duration, resolving k whole years after the start date
	// lands on a cycle boundary with the original day-of-month and the
	// expected ordinal.
	start := date(2024, 1, 31)

	for _, d := range Durations {
		cfg := CycleConfig{StartDate: &start, Duration: d}
		cyclesPerYear := 12 / d.Months()

		for k := 1; k <= 10; k++ {
			now := date(2024+k, 1, 31)
			info, err := Resolve(cfg, now)
			if err != nil {
				t.Fatalf("duration %d, year %d: %v", d, k, err)
			}
			if got, want := info.CycleNumber, k*cyclesPerYear+1; got != want {
				t.Errorf("duration %d, year %d: cycleNumber got %d, want %d", d, k, got, want)
			}
			if !info.CurrentCycleStart.Equal(now) {
				t.Errorf("duration %d, year %d: start got %v, want %v", d, k, info.CurrentCycleStart, now)
			}
		}
	}
}

func TestResolve_CalendarMonthFallback(t *testing.T) {
	// No start date: natural calendar months from the 1st, duration forced
	// to monthly regardless of what the config says.
	cfg := CycleConfig{Duration: DurationAnnual}

	info, err := Resolve(cfg, time.Date(2025, 6, 17, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !info.CurrentCycleStart.Equal(date(2025, 6, 1)) {
		t.Errorf("start: got %v", info.CurrentCycleStart)
	}
	if !info.NextReset.Equal(date(2025, 7, 1)) {
		t.Errorf("nextReset: got %v", info.NextReset)
	}
	if info.Duration != DurationMonthly {
		t.Errorf("duration: got %d, want monthly", info.Duration)
	}
	if info.CycleNumber != 1 {
		t.Errorf("cycleNumber: got %d", info.CycleNumber)
	}
	if info.DaysRemaining != 14 {
		t.Errorf("daysRemaining: got %d, want 14", info.DaysRemaining)
	}
}

func TestResolve_ZeroDurationDefaultsToMonthly(t *testing.T) {
	start := date(2025, 3, 10)
	cfg := CycleConfig{StartDate: &start}

	info, err := Resolve(cfg, date(2025, 4, 20))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Duration != DurationMonthly {
		t.Errorf("duration: got %d", info.Duration)
	}
	if !info.CurrentCycleStart.Equal(date(2025, 4, 10)) {
		t.Errorf("start: got %v", info.CurrentCycleStart)
	}
}

func TestResolve_ResetToNow(t *testing.T) {
	// The upgrade path: moving the anchor to now restarts numbering at 1
	// with a fresh full-length period.
	start := date(2023, 1, 31)
	cfg := CycleConfig{StartDate: &start, Duration: DurationSemiAnnual}

	now := time.Date(2025, 8, 9, 15, 45, 0, 0, time.UTC)
	reset := cfg.ResetToNow(now)

	info, err := Resolve(reset, now)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.CycleNumber != 1 {
		t.Errorf("cycleNumber: got %d, want 1", info.CycleNumber)
	}
	fullLength := int(AddMonths(startOfDayUTC(now), 6).Sub(startOfDayUTC(now)).Hours() / 24)
	if diff := fullLength - info.DaysRemaining; diff < 0 || diff > 1 {
		t.Errorf("daysRemaining: got %d, want within one day of %d", info.DaysRemaining, fullLength)
	}
	// The original config is unchanged.
	if !cfg.StartDate.Equal(start) {
		t.Errorf("ResetToNow mutated the receiver")
	}
}

func TestResolve_InvalidDuration(t *testing.T) {
	start := date(2025, 1, 15)
	cfg := CycleConfig{StartDate: &start, Duration: 5}

	if _, err := Resolve(cfg, date(2025, 2, 1)); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("got %v, want ErrInvalidDuration", err)
	}
}

func TestResolve_TimezoneIndependence(t *testing.T) {
	start := date(2025, 1, 15)
	cfg := CycleConfig{StartDate: &start, Duration: DurationMonthly}

	nows := []time.Time{
		time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 15, 7, 0, 0, 0, time.FixedZone("EST", -5*3600)),
		time.Date(2025, 2, 15, 4, 0, 0, 0, time.FixedZone("PST", -8*3600)),
	}
	for _, now := range nows {
		info, err := Resolve(cfg, now)
		if err != nil {
			t.Fatalf("Resolve(%v): %v", now, err)
		}
		if !info.CurrentCycleStart.Equal(date(2025, 2, 15)) {
			t.Errorf("at %v: start got %v", now, info.CurrentCycleStart)
		}
	}
}
