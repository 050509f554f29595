// Package schedule expands recurring bookings into concrete occurrences and plans
// the time windows a reminder run scans.
//
// All arithmetic works on wall-clock components (year, month, day, hour, minute)
// in the location of the base instant. Daylight-saving transitions are not
// normalized.
package schedule

import (
	"time"

	"cleaner_reminder_service/internal/domain/booking"
)

const day = 24 * time.Hour

// OccurrencesInWindow returns every occurrence of a booking starting at base that
// falls inside [start, end], in chronological order. Occurrences outside the
// window are never generated, so open-ended recurrences stay cheap.
func OccurrencesInWindow(base time.Time, freq booking.Frequency, start, end time.Time) []time.Time {
	if end.Before(start) {
		return nil
	}

	switch freq {
	case booking.Daily:
		return everyNDays(base, 1, start, end)
	case booking.Weekly:
		return everyNDays(base, 7, start, end)
	case booking.Monthly:
		return everyMonth(base, start, end)
	default:
		if within(base, start, end) {
			return []time.Time{base}
		}
		return nil
	}
}

func everyNDays(base time.Time, n int, start, end time.Time) []time.Time {
	k := 0
	if base.Before(start) {
		// Land one interval behind start; a DST shift can make the duration
		// estimate off by an hour either way.
		k = int(start.Sub(base)/(time.Duration(n)*day)) - 1
		if k < 0 {
			k = 0
		}
	}

	var out []time.Time
	for ; ; k++ {
		t := base.AddDate(0, 0, k*n)
		if t.After(end) {
			return out
		}
		if !t.Before(start) {
			out = append(out, t)
		}
	}
}

func everyMonth(base time.Time, start, end time.Time) []time.Time {
	k := 0
	if base.Before(start) {
		k = monthsBetween(base, start) - 1
		if k < 0 {
			k = 0
		}
	}

	var out []time.Time
	for ; ; k++ {
		// Always offset from base so a clamped month does not shorten later ones.
		t := AddClampedMonths(base, k)
		if t.After(end) {
			return out
		}
		if !t.Before(start) {
			out = append(out, t)
		}
	}
}

// AddClampedMonths moves t by n calendar months, keeping the day of month but
// clamping it to the last day of a shorter target month (Jan 31 + 1 → Feb 28/29).
// The time of day is preserved. n may be negative.
func AddClampedMonths(t time.Time, n int) time.Time {
	monthIndex := int(t.Month()) - 1 + n
	year := t.Year() + floorDiv(monthIndex, 12)
	month := time.Month(monthIndex - floorDiv(monthIndex, 12)*12 + 1)

	d := t.Day()
	if last := daysIn(year, month, t.Location()); d > last {
		d = last
	}
	return time.Date(year, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 12, 0, 0, 0, loc).Day()
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
