package domain

import (
	"testing"
	"time"
)

func TestDayBucket_MidnightAligned(t *testing.T) {
	ts := time.Date(2024, 3, 15, 17, 45, 12, 0, time.UTC)
	b := DayBucket(ts)

	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	if !b.Start.Equal(wantStart) {
		t.Errorf("Start mismatch: got %v, want %v", b.Start, wantStart)
	}
	if !b.End.Equal(wantEnd) {
		t.Errorf("End mismatch: got %v, want %v", b.End, wantEnd)
	}
}

func TestTimeBucket_HalfOpen(t *testing.T) {
	b := DayBucket(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	if !b.Contains(b.Start) {
		t.Error("Start must be inside the bucket")
	}
	if b.Contains(b.End) {
		t.Error("End must be outside the bucket")
	}
	if b.Contains(b.Start.Add(-time.Nanosecond)) {
		t.Error("Instant before Start must be outside the bucket")
	}
	if !b.Contains(b.End.Add(-time.Nanosecond)) {
		t.Error("Instant just before End must be inside the bucket")
	}
}

func TestWeekStart_MondayAligned(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ts   time.Time
	}{
		{"monday itself", monday},
		{"monday evening", monday.Add(20 * time.Hour)},
		{"wednesday", time.Date(2024, 3, 13, 9, 30, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC)},
	}

	for _, tc := range cases {
		got := WeekStart(tc.ts)
		if !got.Equal(monday) {
			t.Errorf("%s: WeekStart = %v, want %v", tc.name, got, monday)
		}
		if got.Weekday() != time.Monday {
			t.Errorf("%s: WeekStart is %v, want Monday", tc.name, got.Weekday())
		}
	}
}

func TestWeekBucket_SevenDays(t *testing.T) {
	b := WeekBucket(time.Date(2024, 3, 13, 9, 30, 0, 0, time.UTC))

	if got := b.End.Sub(b.Start); got != 7*24*time.Hour {
		t.Errorf("week bucket width = %v, want 168h", got)
	}
	if b.Start.Weekday() != time.Monday {
		t.Errorf("week bucket starts on %v, want Monday", b.Start.Weekday())
	}
}

func TestSubtractCalendarMonths(t *testing.T) {
	cases := []struct {
		name string
		ts   time.Time
		n    int
		want time.Time
	}{
		{
			name: "mid-month",
			ts:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "march 31 clamps to february 28",
			ts:   time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "march 31 clamps to february 29 in a leap year",
			ts:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "january 31 to december 31",
			ts:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "twelve months from leap day clamps",
			ts:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			n:    12,
			want: time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "preserves time of day",
			ts:   time.Date(2024, 5, 31, 23, 45, 1, 500, time.UTC),
			n:    3,
			want: time.Date(2024, 2, 29, 23, 45, 1, 500, time.UTC),
		},
	}

	for _, tc := range cases {
		got := SubtractCalendarMonths(tc.ts, tc.n)
		if !got.Equal(tc.want) {
			t.Errorf("%s: SubtractCalendarMonths(%v, %d) = %v, want %v", tc.name, tc.ts, tc.n, got, tc.want)
		}
	}
}
