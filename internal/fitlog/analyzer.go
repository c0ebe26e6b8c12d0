package fitlog

import (
	"time"
)

// NoTrainingYet is the dashboard sentinel shown before the first logged set.
const NoTrainingYet = "no training yet"

// Analyzer derives the dashboard scalars from an event log snapshot.
// Every operation is a pure function of the snapshot, tolerates an empty
// log and never reloads anything.
type Analyzer struct {
	// Now is injectable for tests; defaults to time.Now
	Now func() time.Time
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		Now: time.Now,
	}
}

// LatestWeight returns the quantity of the last weight check-in,
// in insertion order. Zero when none was logged yet.
func (a *Analyzer) LatestWeight(el *EventLog) float64 {
	if e, ok := el.Last(KindWeight); ok {
		return e.Quantity
	}
	return 0
}

// PrevWeight returns the weight check-in before the latest one,
// used for the progress delta badge. Zero when there is at most one.
func (a *Analyzer) PrevWeight(el *EventLog) float64 {
	var prev, last float64
	count := 0
	for e := range el.ByKind(KindWeight) {
		prev = last
		last = e.Quantity
		count++
	}
	if count < 2 {
		return 0
	}
	return prev
}

// StartWeight returns the quantity of the first weight check-in in
// insertion order, the baseline for the net progress delta. Zero default.
func (a *Analyzer) StartWeight(el *EventLog) float64 {
	if e, ok := el.First(KindWeight); ok {
		return e.Quantity
	}
	return 0
}

// GoalWeight returns the first non-zero goal found across the log.
// The goal is written on the onboarding event only, but older revisions of
// the sheet copied it onto other rows too, so any row counts.
func (a *Analyzer) GoalWeight(el *EventLog) float64 {
	for _, e := range el.Events() {
		if e.Goal > 0 {
			return e.Goal
		}
	}
	return 0
}

// TodayWaterTotal sums the water quantities logged today. Water intake is
// cumulative through the day, so this is a sum, not a latest-value read.
func (a *Analyzer) TodayWaterTotal(el *EventLog) float64 {
	today := truncateToDay(a.Now())
	var total float64
	for e := range el.ByKind(KindWater) {
		if truncateToDay(e.Date).Equal(today) {
			total += e.Quantity
		}
	}
	return total
}

// LatestWorkoutLabel returns the label of the last training set,
// or the NoTrainingYet sentinel.
func (a *Analyzer) LatestWorkoutLabel(el *EventLog) string {
	if e, ok := el.Last(KindTraining); ok {
		return e.Label
	}
	return NoTrainingYet
}

// PlannedExercises returns the distinct labels of the plan events,
// in order of first occurrence.
func (a *Analyzer) PlannedExercises(el *EventLog) []string {
	seen := make(map[string]bool)
	var planned []string
	for e := range el.ByKind(KindPlan) {
		if e.Label == "" || seen[e.Label] {
			continue
		}
		seen[e.Label] = true
		planned = append(planned, e.Label)
	}
	return planned
}
