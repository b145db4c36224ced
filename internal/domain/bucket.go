package domain

import "time"

// TimeBucket is a half-open UTC interval [Start, End).
type TimeBucket struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the bucket.
func (b TimeBucket) Contains(ts time.Time) bool {
	return !ts.Before(b.Start) && ts.Before(b.End)
}

// DayBucket returns the midnight-aligned 24h bucket containing ts.
func DayBucket(ts time.Time) TimeBucket {
	ts = ts.UTC()
	start := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return TimeBucket{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekBucket returns the Monday-aligned 7-day bucket containing ts.
func WeekBucket(ts time.Time) TimeBucket {
	start := WeekStart(ts)
	return TimeBucket{Start: start, End: start.AddDate(0, 0, 7)}
}

// WeekStart returns midnight UTC of the Monday of the week containing ts.
func WeekStart(ts time.Time) time.Time {
	ts = ts.UTC()
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// SubtractCalendarMonths moves ts back by n calendar months, clamping to
// the last valid day of the target month: March 31 minus one month is the
// last day of February. time.AddDate would normalize the overflow forward
// into March instead, which is not what a calendar comparison wants.
func SubtractCalendarMonths(ts time.Time, n int) time.Time {
	ts = ts.UTC()
	year, month, day := ts.Date()

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -n, 0)
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day,
		ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.UTC)
}
