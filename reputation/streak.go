package reputation

import (
	"time"

	"github.com/commhub/reputation/models"
)

// TouchActivity updates the consecutive-active-day counters on a reputation
// row for activity happening on day `today`. It mutates the row in memory;
// persisting is the caller's job (the orchestrator saves inside its
// transaction).
//
// Semantics: first ever activity starts a streak of 1; a repeat on the same
// day is a no-op; activity on the day after the last one extends the streak;
// any gap of two or more days, or a recorded date in the future (clock skew),
// resets to 1.
func TouchActivity(rep *models.UserReputation, today time.Time) {
	day := startOfDay(today)
	if rep.LastActivityDate == nil {
		rep.ConsecutiveDaysActive = 1
		rep.LastActivityDate = &day
		return
	}
	last := startOfDay(*rep.LastActivityDate)
	switch {
	case last.Equal(day):
		return
	case last.Equal(day.AddDate(0, 0, -1)):
		rep.ConsecutiveDaysActive++
	default:
		rep.ConsecutiveDaysActive = 1
	}
	rep.LastActivityDate = &day
}

// sameActivityDay reports whether the row already recorded activity on `today`.
func sameActivityDay(rep *models.UserReputation, today time.Time) bool {
	if rep.LastActivityDate == nil {
		return false
	}
	return startOfDay(*rep.LastActivityDate).Equal(startOfDay(today))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
