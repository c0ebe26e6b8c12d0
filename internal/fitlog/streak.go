package fitlog

import (
	"sort"
	"time"
)

// StreakCalculator counts consecutive calendar days with at least one
// creatine intake, walking backward from today. A user who has not logged
// today yet keeps the streak for one more day (grace period), so it does
// not look reset every morning.
type StreakCalculator struct {
	// Now is injectable for tests; defaults to time.Now
	Now func() time.Time
}

func NewStreakCalculator() *StreakCalculator {
	return &StreakCalculator{
		Now: time.Now,
	}
}

// Days returns the current creatine streak for the given log snapshot.
// Always a well defined integer >= 0, malformed dates never reach here.
func (sc *StreakCalculator) Days(el *EventLog) int {
	return sc.DaysOf(el, KindCreatine)
}

// DaysOf computes the backward streak of distinct calendar days
// on which at least one event of the given kind exists.
func (sc *StreakCalculator) DaysOf(el *EventLog, kind EventKind) int {
	// duplicate same-day entries collapse to one
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for e := range el.ByKind(kind) {
		day := truncateToDay(e.Date)
		if seen[day] {
			continue
		}
		seen[day] = true
		dates = append(dates, day)
	}

	if len(dates) == 0 {
		return 0
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})

	today := truncateToDay(sc.Now())
	yesterday := today.AddDate(0, 0, -1)

	cursor := today
	mostRecent := dates[0]
	switch {
	case mostRecent.Before(yesterday):
		// lapsed more than one day ago
		return 0
	case mostRecent.Equal(yesterday):
		// not logged today yet, grace period
		cursor = yesterday
	}

	streak := 0
	for _, d := range dates {
		if d.Equal(cursor) {
			streak++
			cursor = cursor.AddDate(0, 0, -1)
			continue
		}
		if d.Before(cursor) {
			// a gap, the streak ends here
			break
		}
	}

	return streak
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
