package fitlog_test

import (
	"testing"

	"github.com/2beens/ironhub/internal/fitlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(rows ...[]string) fitlog.Table {
	t := fitlog.NewTable()
	t.Rows = rows
	return t
}

func row(date, kind, label, quantity, sets, reps, owner, goal string) []string {
	return []string{date, kind, label, quantity, sets, reps, owner, goal}
}

func TestNewEventLog_OwnerFilter(t *testing.T) {
	table := testTable(
		row("2026-01-03", "Kreatin", "creatine", "5", "0", "0", "marko", ""),
		row("2026-01-03", "Kreatin", "creatine", "5", "0", "0", "nina", ""),
		row("2026-01-04", "Gewicht", "check-in", "83,5", "0", "0", "marko", ""),
	)

	el := fitlog.NewEventLog(table, "marko")
	require.Equal(t, 2, el.Len())
	assert.Equal(t, "marko", el.Owner())
	assert.Equal(t, 0, el.SkippedRows())
	for _, e := range el.Events() {
		assert.Equal(t, "marko", e.Owner)
	}

	// unknown owner gets an empty log, not an error
	empty := fitlog.NewEventLog(table, "nobody")
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Events())
}

func TestNewEventLog_SkipsMalformedRowsOnly(t *testing.T) {
	table := testTable(
		row("2026-01-03", "Kreatin", "creatine", "5", "0", "0", "marko", ""),
		row("not-a-date", "Kreatin", "creatine", "5", "0", "0", "marko", ""),
		row("2026-01-04", "Pilates", "oops", "0", "0", "0", "marko", ""),
		row("2026-01-05", "Wasser", "water", "0.5", "0", "0", "marko", ""),
	)

	el := fitlog.NewEventLog(table, "marko")
	assert.Equal(t, 2, el.Len())
	assert.Equal(t, 2, el.SkippedRows())
}

func TestEventLog_ByKindIsRestartable(t *testing.T) {
	table := testTable(
		row("2026-01-03", "Training", "Kniebeugen", "60", "3", "8", "marko", ""),
		row("2026-01-03", "Wasser", "water", "0.5", "0", "0", "marko", ""),
		row("2026-01-04", "Training", "Kreuzheben", "80", "3", "5", "marko", ""),
	)
	el := fitlog.NewEventLog(table, "marko")

	collect := func() []string {
		var labels []string
		for e := range el.ByKind(fitlog.KindTraining) {
			labels = append(labels, e.Label)
		}
		return labels
	}

	first := collect()
	second := collect()
	assert.Equal(t, []string{"Kniebeugen", "Kreuzheben"}, first)
	assert.Equal(t, first, second)

	// early break must not disturb a later full pass
	for range el.ByKind(fitlog.KindTraining) {
		break
	}
	assert.Equal(t, first, collect())
}

func TestEventLog_FirstAndLast(t *testing.T) {
	table := testTable(
		row("2026-01-03", "Gewicht", "check-in", "85", "0", "0", "marko", ""),
		// same day twice, the later row wins for Last
		row("2026-01-04", "Gewicht", "check-in", "84,7", "0", "0", "marko", ""),
		row("2026-01-04", "Gewicht", "check-in", "84,2", "0", "0", "marko", ""),
	)
	el := fitlog.NewEventLog(table, "marko")

	first, ok := el.First(fitlog.KindWeight)
	require.True(t, ok)
	assert.Equal(t, 85.0, first.Quantity)

	last, ok := el.Last(fitlog.KindWeight)
	require.True(t, ok)
	assert.Equal(t, 84.2, last.Quantity)

	_, ok = el.First(fitlog.KindTraining)
	assert.False(t, ok)
	_, ok = el.Last(fitlog.KindTraining)
	assert.False(t, ok)
}
