package relax

import "time"

// DayDiff returns the number of calendar days from a to b in loc.
// Wall-clock dates are compared, so DST shifts do not matter.
func DayDiff(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// WeekStart returns the most recent Sunday 00:00 in loc, on or before t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -int(local.Weekday()))
}

// InWeek reports whether t falls in the Sunday-aligned week containing now.
func InWeek(t, now time.Time, loc *time.Location) bool {
	start := WeekStart(now, loc)
	end := start.AddDate(0, 0, 7)
	return !t.Before(start) && t.Before(end)
}

// NextStreak applies one completed session to a streak.
func NextStreak(streak int, last time.Time, hasLast bool, completedAt time.Time, loc *time.Location) int {
	if !hasLast || streak <= 0 {
		return 1
	}
	switch diff := DayDiff(last, completedAt, loc); {
	case diff == 1:
		return streak + 1
	case diff > 1:
		return 1
	default:
		return streak
	}
}
