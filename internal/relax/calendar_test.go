package relax

import (
	"testing"
	"time"
)

func TestDayDiffAcrossMidnight(t *testing.T) {
	loc := time.UTC
	a := time.Date(2026, 3, 10, 23, 50, 0, 0, loc)
	b := time.Date(2026, 3, 11, 0, 10, 0, 0, loc)
	if got := DayDiff(a, b, loc); got != 1 {
		t.Fatalf("expected 1 day, got %d", got)
	}
	if got := DayDiff(b, a, loc); got != -1 {
		t.Fatalf("expected -1 day, got %d", got)
	}
}

func TestDayDiffAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	a := time.Date(2026, 3, 7, 22, 0, 0, 0, loc)
	b := time.Date(2026, 3, 8, 22, 0, 0, 0, loc)
	if got := DayDiff(a, b, loc); got != 1 {
		t.Fatalf("expected 1 day across DST, got %d", got)
	}
}

func TestWeekStartIsSunday(t *testing.T) {
	loc := time.UTC
	// 2026-10-21 is a Wednesday.
	wed := time.Date(2026, 10, 21, 15, 30, 0, 0, loc)
	start := WeekStart(wed, loc)
	want := time.Date(2026, 10, 18, 0, 0, 0, 0, loc)
	if !start.Equal(want) {
		t.Fatalf("expected %v, got %v", want, start)
	}
	sun := time.Date(2026, 10, 18, 0, 0, 0, 0, loc)
	if !WeekStart(sun, loc).Equal(sun) {
		t.Fatalf("sunday midnight must start its own week")
	}
}

func TestInWeek(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, loc)
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 10, 18, 0, 0, 0, 0, loc), true},
		{time.Date(2026, 10, 17, 23, 59, 0, 0, loc), false},
		{time.Date(2026, 10, 24, 23, 59, 0, 0, loc), true},
		{time.Date(2026, 10, 25, 0, 0, 0, 0, loc), false},
	}
	for _, tc := range cases {
		if got := InWeek(tc.at, now, loc); got != tc.want {
			t.Fatalf("InWeek(%v) = %v, want %v", tc.at, got, tc.want)
		}
	}
}

func TestNextStreak(t *testing.T) {
	loc := time.UTC
	last := time.Date(2026, 5, 1, 20, 0, 0, 0, loc)
	cases := []struct {
		name    string
		streak  int
		hasLast bool
		at      time.Time
		want    int
	}{
		{"first", 0, false, last, 1},
		{"next day", 4, true, last.AddDate(0, 0, 1), 5},
		{"same day", 4, true, last.Add(2 * time.Hour), 4},
		{"gap", 4, true, last.AddDate(0, 0, 3), 1},
		{"earlier", 4, true, last.AddDate(0, 0, -2), 4},
	}
	for _, tc := range cases {
		if got := NextStreak(tc.streak, last, tc.hasLast, tc.at, loc); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}
