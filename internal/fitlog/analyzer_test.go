package fitlog_test

import (
	"testing"
	"time"

	"github.com/2beens/ironhub/internal/fitlog"

	"github.com/stretchr/testify/assert"
)

func analyzerAt(day string) *fitlog.Analyzer {
	now, err := time.Parse(fitlog.DateLayout, day)
	if err != nil {
		panic(err)
	}
	a := fitlog.NewAnalyzer()
	a.Now = func() time.Time { return now.Add(9 * time.Hour) }
	return a
}

func TestAnalyzer_EmptyLogDefaults(t *testing.T) {
	a := analyzerAt("2026-01-06")
	el := fitlog.NewEventLog(fitlog.NewTable(), "marko")

	assert.Equal(t, 0.0, a.LatestWeight(el))
	assert.Equal(t, 0.0, a.PrevWeight(el))
	assert.Equal(t, 0.0, a.StartWeight(el))
	assert.Equal(t, 0.0, a.GoalWeight(el))
	assert.Equal(t, 0.0, a.TodayWaterTotal(el))
	assert.Equal(t, fitlog.NoTrainingYet, a.LatestWorkoutLabel(el))
	assert.Empty(t, a.PlannedExercises(el))
}

func TestAnalyzer_WeightProgression(t *testing.T) {
	a := analyzerAt("2026-01-06")
	el := fitlog.NewEventLog(testTable(
		row("2026-01-01", "Gewicht", "check-in", "85", "0", "0", "marko", ""),
		row("2026-01-03", "Gewicht", "check-in", "84.2", "0", "0", "marko", ""),
		row("2026-01-05", "Gewicht", "check-in", "83.6", "0", "0", "marko", ""),
	), "marko")

	assert.Equal(t, 83.6, a.LatestWeight(el))
	assert.Equal(t, 84.2, a.PrevWeight(el))
	assert.Equal(t, 85.0, a.StartWeight(el))
}

func TestAnalyzer_PrevWeightNeedsTwoCheckIns(t *testing.T) {
	a := analyzerAt("2026-01-06")
	el := fitlog.NewEventLog(testTable(
		row("2026-01-05", "Gewicht", "check-in", "83.6", "0", "0", "marko", ""),
	), "marko")

	assert.Equal(t, 83.6, a.LatestWeight(el))
	assert.Equal(t, 0.0, a.PrevWeight(el))
}

func TestAnalyzer_GoalWeightFirstNonZero(t *testing.T) {
	a := analyzerAt("2026-01-06")
	el := fitlog.NewEventLog(testTable(
		row("2026-01-01", "Gewicht", "check-in", "85", "0", "0", "marko", ""),
		row("2026-01-01", "Profil", "onboarding", "0", "0", "0", "marko", "78"),
		row("2026-01-02", "Profil", "onboarding again", "0", "0", "0", "marko", "80"),
	), "marko")

	assert.Equal(t, 78.0, a.GoalWeight(el))
}

func TestAnalyzer_TodayWaterTotalIsAdditive(t *testing.T) {
	a := analyzerAt("2026-01-06")
	el := fitlog.NewEventLog(testTable(
		row("2026-01-05", "Wasser", "water", "2", "0", "0", "marko", ""),
		row("2026-01-06", "Wasser", "water", "0.5", "0", "0", "marko", ""),
		row("2026-01-06", "Wasser", "water", "0.5", "0", "0", "marko", ""),
	), "marko")

	// two glasses today, yesterday does not count
	assert.Equal(t, 1.0, a.TodayWaterTotal(el))
}

func TestAnalyzer_LatestWorkoutLabel(t *testing.T) {
	a := analyzerAt("2026-01-06")
	el := fitlog.NewEventLog(testTable(
		row("2026-01-05", "Training", "Kniebeugen", "60", "3", "8", "marko", ""),
		row("2026-01-06", "Training", "Bankdrücken", "62.5", "3", "10", "marko", ""),
	), "marko")

	assert.Equal(t, "Bankdrücken", a.LatestWorkoutLabel(el))
}

func TestAnalyzer_PlannedExercisesDistinctFirstOccurrence(t *testing.T) {
	a := analyzerAt("2026-01-06")
	el := fitlog.NewEventLog(testTable(
		row("2026-01-04", "Plan", "Kniebeugen", "0", "0", "0", "marko", ""),
		row("2026-01-05", "Plan", "Klimmzüge", "0", "0", "0", "marko", ""),
		row("2026-01-06", "Plan", "Kniebeugen", "0", "0", "0", "marko", ""),
		row("2026-01-06", "Plan", "", "0", "0", "0", "marko", ""),
	), "marko")

	assert.Equal(t, []string{"Kniebeugen", "Klimmzüge"}, a.PlannedExercises(el))
}
