package aggregate

import (
	"fmt"
	"time"
)

const (
	dailyLookbackDays     = 30
	monthlyLookbackMonths = 12
	yearlyLookbackYears   = 5
)

// Boundaries returns the inclusive window ending at ref for g. The start is
// midnight of the lookback day in ref's location, so the first bucket is a
// whole day. Month and year subtraction clamp the day of month.
func Boundaries(g Granularity, ref time.Time) (Window, error) {
	var start time.Time
	switch g {
	case Daily:
		start = ref.AddDate(0, 0, -dailyLookbackDays)
	case Monthly:
		start = addMonthsClamped(ref, -monthlyLookbackMonths)
	case Yearly:
		start = addMonthsClamped(ref, -12*yearlyLookbackYears)
	default:
		return Window{}, fmt.Errorf("unknown granularity %q", string(g))
	}
	return Window{Start: startOfDay(start), End: ref}, nil
}

// LastMonth is the trailing one-calendar-month window used by the summary.
func LastMonth(ref time.Time) Window {
	return Window{Start: addMonthsClamped(ref, -1), End: ref}
}

// BucketKey labels t in its own location.
func BucketKey(g Granularity, t time.Time) string {
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Monthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}

// addMonthsClamped moves t by months calendar months, keeping the time of
// day and clamping the day to the target month's length (Mar 31 - 1 month
// is Feb 28/29, not Mar 2/3 as time.AddDate would give).
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	idx := int(m) - 1 + months
	y += floorDiv(idx, 12)
	month := time.Month(idx - floorDiv(idx, 12)*12 + 1)

	if last := daysIn(y, month, t.Location()); d > last {
		d = last
	}
	return time.Date(y, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
