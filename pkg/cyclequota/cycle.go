package cyclequota

import "time"

// AddMonths adds calendar months to a date, preserving the day-of-month when
// the target month has enough days and clamping to the last day otherwise.
//
// Examples:
//   - Jan 31 + 1 month = Feb 28 (Feb 29 in leap years)
//   - Mar 31 + 1 month = Apr 30
//   - Jan 31 + 12 months = Jan 31 (exact)
func AddMonths(t time.Time, months int) time.Time {
	return addMonthsAnchored(t, months, t.Day())
}

// addMonthsAnchored adds months while targeting a fixed anchor day-of-month.
// If the anchor day doesn't exist in the result month (e.g., Feb 31), it uses
// the last day of that month. Anchoring to the original start day is what
// keeps a cycle started on the 31st realigning to the 31st after a clamped
// February, instead of drifting to the 28th forever.
func addMonthsAnchored(base time.Time, months, anchorDay int) time.Time {
	year, month, _ := base.Date()
	target := time.Date(year, month+time.Month(months), 1, base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())

	// day=0 of month+1 is the last day of month
	lastDay := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, target.Location()).Day()

	day := anchorDay
	if day > lastDay {
		day = lastDay
	}

	return time.Date(target.Year(), target.Month(), day, base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
}

// startOfDayUTC returns the start of day (00:00:00) in UTC for the given time.
func startOfDayUTC(t time.Time) time.Time {
	tt := t.UTC()
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.UTC)
}

// endOfDayUTC returns the last representable instant of the day in UTC.
// Used to widen an inclusive cycle end date so that usage recorded at any
// time on that calendar date is counted.
func endOfDayUTC(t time.Time) time.Time {
	tt := t.UTC()
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// firstOfMonthUTC returns the first day of t's calendar month in UTC.
func firstOfMonthUTC(t time.Time) time.Time {
	tt := t.UTC()
	return time.Date(tt.Year(), tt.Month(), 1, 0, 0, 0, 0, time.UTC)
}
