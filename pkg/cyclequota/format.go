package cyclequota

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// supportedLocales are the display locales this engine ships messages for.
// The first entry is the fallback for unmatched tags.
var supportedLocales = []language.Tag{language.English, language.German}

var localeMatcher = language.NewMatcher(supportedLocales)

// MatchLocale maps an arbitrary BCP 47 tag to the closest supported display
// locale (e.g. "de-AT" matches German, anything unknown falls back to
// English).
func MatchLocale(tag language.Tag) language.Tag {
	_, i, _ := localeMatcher.Match(tag)
	return supportedLocales[i]
}

// PeriodText returns the locale-specific noun phrase for a cycle duration,
// e.g. "quarterly cycle" / "Quartalszyklus". Deny messages always use this
// instead of a generic "monthly" phrase so non-monthly tenants see their
// actual period.
func PeriodText(d CycleDuration, tag language.Tag) string {
	if MatchLocale(tag) == language.German {
		switch d {
		case DurationMonthly:
			return "Monatszyklus"
		case DurationBimonthly:
			return "2-Monatszyklus"
		case DurationQuarterly:
			return "Quartalszyklus"
		case DurationFourMonth:
			return "4-Monatszyklus"
		case DurationSemiAnnual:
			return "Halbjahreszyklus"
		case DurationAnnual:
			return "Jahreszyklus"
		default:
			return fmt.Sprintf("%d-Monatszyklus", d.Months())
		}
	}
	switch d {
	case DurationMonthly:
		return "monthly cycle"
	case DurationBimonthly:
		return "2-month cycle"
	case DurationQuarterly:
		return "quarterly cycle"
	case DurationFourMonth:
		return "4-month cycle"
	case DurationSemiAnnual:
		return "semi-annual cycle"
	case DurationAnnual:
		return "annual cycle"
	default:
		return fmt.Sprintf("%d-month cycle", d.Months())
	}
}

// Label returns the settings-UI label for a duration, e.g.
// "3 months (quarter)" / "3 Monate (Quartal)".
func (d CycleDuration) Label(tag language.Tag) string {
	if MatchLocale(tag) == language.German {
		switch d {
		case DurationMonthly:
			return "1 Monat"
		case DurationBimonthly:
			return "2 Monate"
		case DurationQuarterly:
			return "3 Monate (Quartal)"
		case DurationFourMonth:
			return "4 Monate"
		case DurationSemiAnnual:
			return "6 Monate (Halbjahr)"
		case DurationAnnual:
			return "12 Monate (Jahr)"
		default:
			return fmt.Sprintf("%d Monate", d.Months())
		}
	}
	switch d {
	case DurationMonthly:
		return "1 month"
	case DurationBimonthly:
		return "2 months"
	case DurationQuarterly:
		return "3 months (quarter)"
	case DurationFourMonth:
		return "4 months"
	case DurationSemiAnnual:
		return "6 months (half-year)"
	case DurationAnnual:
		return "12 months (year)"
	default:
		return fmt.Sprintf("%d months", d.Months())
	}
}

// FormatResetDate renders a reset date as a locale-appropriate calendar date
// string: "January 2, 2006" in English, "02.01.2006" in German.
func FormatResetDate(t time.Time, tag language.Tag) string {
	if MatchLocale(tag) == language.German {
		return t.UTC().Format("02.01.2006")
	}
	return t.UTC().Format("January 2, 2006")
}

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// MonthName returns the localized month name used in calendar-month fallback
// messages.
func MonthName(m time.Month, tag language.Tag) string {
	if MatchLocale(tag) == language.German {
		return germanMonths[m-1]
	}
	return m.String()
}

// denyMessage assembles the localized human-readable text for a quota denial.
// calendarFallback selects the backward-compatible monthly wording used for
// tenants without a custom cycle start date.
func denyMessage(limit int, info CycleInfo, calendarFallback bool, tag language.Tag) string {
	resetDate := FormatResetDate(info.NextReset, tag)

	if MatchLocale(tag) == language.German {
		dayWord := "Tagen"
		if info.DaysRemaining == 1 {
			dayWord = "Tag"
		}
		if calendarFallback {
			return fmt.Sprintf(
				"Dieser Workspace hat das monatliche Limit von %d für den Monat %s erreicht. Das Limit wird in %d %s am %s zurückgesetzt.",
				limit, MonthName(info.CurrentCycleStart.Month(), tag), info.DaysRemaining, dayWord, resetDate)
		}
		return fmt.Sprintf(
			"Dieser Workspace hat das Limit von %d für den aktuellen %s erreicht. Das Limit wird in %d %s am %s zurückgesetzt.",
			limit, PeriodText(info.Duration, tag), info.DaysRemaining, dayWord, resetDate)
	}

	dayWord := "days"
	if info.DaysRemaining == 1 {
		dayWord = "day"
	}
	if calendarFallback {
		return fmt.Sprintf(
			"This workspace has reached its monthly usage limit of %d for %s. The limit will reset in %d %s on %s.",
			limit, MonthName(info.CurrentCycleStart.Month(), tag), info.DaysRemaining, dayWord, resetDate)
	}
	return fmt.Sprintf(
		"This workspace has reached its usage limit of %d for the current %s. The limit will reset in %d %s on %s.",
		limit, PeriodText(info.Duration, tag), info.DaysRemaining, dayWord, resetDate)
}

// unavailableMessage is the deny text used by the fail-closed policy when the
// usage counter cannot be reached.
func unavailableMessage(tag language.Tag) string {
	if MatchLocale(tag) == language.German {
		return "Die Nutzung kann derzeit nicht ermittelt werden. Bitte versuchen Sie es später erneut."
	}
	return "Usage cannot be determined right now. Please try again later."
}
