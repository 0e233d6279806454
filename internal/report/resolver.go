// Package report turns named quick-range selections into concrete date
// intervals for transaction queries and report exports.
package report

import (
	"time"

	"finview/internal/core"
)

// Kind names a quick range. Unrecognized values behave like AllTime.
type Kind string

const (
	Last7Days   Kind = "last7"
	LastMonth   Kind = "last1m"
	Last6Months Kind = "last6m"
	CurrentFY   Kind = "current_fy"
	LastFY      Kind = "last_fy"
	Custom      Kind = "custom"
	AllTime     Kind = "all"
)

// DefaultFYStartMonth is April, the most common fiscal-year start.
const DefaultFYStartMonth = 4

// Selection is the input to Resolve: a quick-range kind plus the knobs
// some kinds need. FYStartMonth is 1-indexed (1 = January); zero falls
// back to DefaultFYStartMonth. Custom bounds may each be empty.
type Selection struct {
	Kind         Kind
	FYStartMonth int
	CustomStart  core.Date
	CustomEnd    core.Date
}

// KnownKinds lists the selectable quick ranges in display order.
func KnownKinds() []Kind {
	return []Kind{Last7Days, LastMonth, Last6Months, CurrentFY, LastFY, Custom, AllTime}
}

// Resolve maps a selection to a concrete date range, deterministically
// given now. It performs no I/O.
//
// Month arithmetic uses time.AddDate, so a day past the end of the target
// month rolls into the following month (Mar 31 minus one month is Mar 2 in
// a leap year). Both bounds are inclusive; a zero bound is unbounded.
func Resolve(sel Selection, now time.Time) core.DateRange {
	today := core.DateOf(now)

	switch sel.Kind {
	case Last7Days:
		return core.DateRange{Start: shift(today, 0, 0, -7), End: today}
	case LastMonth:
		return core.DateRange{Start: shift(today, 0, -1, 0), End: today}
	case Last6Months:
		return core.DateRange{Start: shift(today, 0, -6, 0), End: today}
	case CurrentFY:
		return core.DateRange{Start: fiscalYearStart(today, sel.fyStartMonth()), End: today}
	case LastFY:
		start := shift(fiscalYearStart(today, sel.fyStartMonth()), -1, 0, 0)
		// Day zero of the next fiscal year's start month, i.e. the last
		// calendar day before that month begins.
		end := core.Date{Time: time.Date(start.Year()+1, sel.fyStartMonth(), 0, 0, 0, 0, 0, time.UTC)}
		return core.DateRange{Start: start, End: end}
	case Custom:
		// Both bounds empty is a valid, fully unbounded filter.
		return core.DateRange{Start: sel.CustomStart, End: sel.CustomEnd}
	default:
		return core.DateRange{}
	}
}

func (sel Selection) fyStartMonth() time.Month {
	if sel.FYStartMonth < 1 || sel.FYStartMonth > 12 {
		return time.Month(DefaultFYStartMonth)
	}
	// The only 1-indexed to time.Month conversion; time.Month is itself
	// 1-indexed so no further offset applies.
	return time.Month(sel.FYStartMonth)
}

// fiscalYearStart returns the first day of the fiscal year containing the
// given date. A date before the start month belongs to the fiscal year
// that began the previous calendar year.
func fiscalYearStart(today core.Date, startMonth time.Month) core.Date {
	year := today.Year()
	if today.Time.Month() < startMonth {
		year--
	}
	return core.NewDate(year, int(startMonth), 1)
}

func shift(d core.Date, years, months, days int) core.Date {
	return core.Date{Time: d.AddDate(years, months, days)}
}
