package cyclequota

import "time"

// maxCycleWalk caps the iterative period walk. 2400 monthly boundaries is two
// centuries of tenant age; hitting the cap means the config is corrupted.
const maxCycleWalk = 2400

// CycleInfo describes the billing cycle containing a given instant. It is
// derived, never persisted, and recomputed per query.
type CycleInfo struct {
	// CycleNumber is the 1-based ordinal of the period since the start date.
	CycleNumber int

	// CurrentCycleStart is the first day of the current cycle (00:00 UTC).
	CurrentCycleStart time.Time

	// CurrentCycleEnd is the last day of the current cycle, inclusive
	// (the day before NextReset).
	CurrentCycleEnd time.Time

	// NextReset is the exclusive upper bound of the current cycle and the
	// start of the next one.
	NextReset time.Time

	// DaysRemaining is the whole days from now (inclusive) to NextReset
	// (exclusive), rounded up. Equals the cycle length in days on the first
	// day of the cycle.
	DaysRemaining int

	// Duration is the cycle length in months.
	Duration CycleDuration

	// AnchorDay is the day-of-month the cycle boundaries target before
	// clamping (the start date's day, or 1 for the calendar fallback).
	AnchorDay int
}

// CountRange returns the cycle boundaries widened to an inclusive datetime
// range: [CurrentCycleStart 00:00, CurrentCycleEnd 23:59:59.999...], so that
// a usage event recorded at any time on the last day is counted.
func (ci CycleInfo) CountRange() (start, end time.Time) {
	return ci.CurrentCycleStart, endOfDayUTC(ci.CurrentCycleEnd)
}

// Resolve determines the billing cycle containing now for the given tenant
// config. Boundaries are inclusive-start, exclusive-end: an instant exactly
// on a boundary belongs to the new cycle. A now earlier than the start date
// resolves to cycle 1 (the tenant simply has not started consuming yet).
//
// Each boundary is computed from the original start date and anchor day, not
// from the previous (possibly clamped) boundary, so after 12 / duration
// cycles the boundary is back on the original day-of-month one year later.
// Month lengths are irregular, so there is no closed form; the walk is
// iterative and bounded.
func Resolve(cfg CycleConfig, now time.Time) (CycleInfo, error) {
	n := now.UTC()

	var start time.Time
	duration := cfg.Duration
	if cfg.StartDate == nil {
		// Backward-compat fallback: natural calendar months.
		start = firstOfMonthUTC(n)
		duration = DurationMonthly
	} else {
		start = startOfDayUTC(*cfg.StartDate)
		if duration == 0 {
			duration = DurationMonthly
		}
	}
	if !duration.Valid() {
		return CycleInfo{}, ErrInvalidDuration
	}

	months := duration.Months()
	anchorDay := start.Day()

	cycleStart := start
	cycleNumber := 1
	var nextReset time.Time
	for k := 1; ; k++ {
		if k > maxCycleWalk {
			return CycleInfo{}, ErrCycleWalkExceeded
		}
		nextReset = addMonthsAnchored(start, k*months, anchorDay)
		if nextReset.After(n) {
			break
		}
		cycleStart = nextReset
		cycleNumber++
	}

	remaining := nextReset.Sub(n)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}

	return CycleInfo{
		CycleNumber:       cycleNumber,
		CurrentCycleStart: cycleStart,
		CurrentCycleEnd:   nextReset.AddDate(0, 0, -1),
		NextReset:         nextReset,
		DaysRemaining:     days,
		Duration:          duration,
		AnchorDay:         anchorDay,
	}, nil
}
