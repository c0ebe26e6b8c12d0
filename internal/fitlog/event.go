package fitlog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventKind tags what a row in the shared sheet means. The wire values
// are the original German tags used by the spreadsheet, so the same
// sheet stays readable by its previous frontends.
type EventKind string

const (
	KindWeight     EventKind = "Gewicht"
	KindTraining   EventKind = "Training"
	KindCreatine   EventKind = "Kreatin"
	KindWater      EventKind = "Wasser"
	KindPlan       EventKind = "Plan"
	KindOnboarding EventKind = "Profil"
)

func (ek EventKind) String() string {
	return string(ek)
}

func (ek EventKind) IsValid() bool {
	switch ek {
	case KindWeight,
		KindTraining,
		KindCreatine,
		KindWater,
		KindPlan,
		KindOnboarding:
		return true
	default:
		return false
	}
}

// Event is one immutable logged occurrence: a weight check-in, a training
// set, a creatine dose, a water intake or a plan addition. Which fields are
// meaningful depends on Kind; the rest are zero.
type Event struct {
	Date     time.Time `json:"date"`
	Kind     EventKind `json:"kind"`
	Label    string    `json:"label"`
	Quantity float64   `json:"quantity"`
	Sets     int       `json:"sets"`
	Reps     int       `json:"reps"`
	Goal     float64   `json:"goal,omitempty"`
	Owner    string    `json:"owner"`
}

// sheet column names, exactly as the shared spreadsheet has them
const (
	ColDate     = "Datum"
	ColKind     = "Typ"
	ColLabel    = "Übung/Info"
	ColQuantity = "Gewicht"
	ColSets     = "Sätze"
	ColReps     = "Wiederholungen"
	ColOwner    = "Email"
	ColGoal     = "Ziel"
)

// DateLayout is the ISO calendar date used in the Datum column.
// There is deliberately no time component: same-day ordering is
// insertion (row) order only.
const DateLayout = "2006-01-02"

var ErrMalformedRow = errors.New("malformed row")

// Table is the whole backing table, as read from / written to the store.
// Column order is not fixed, the header decides it.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NewTable returns an empty table with the canonical column order.
func NewTable() Table {
	return Table{
		Header: []string{
			ColDate, ColKind, ColLabel, ColQuantity,
			ColSets, ColReps, ColOwner, ColGoal,
		},
	}
}

func (t Table) columnIndex() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, col := range t.Header {
		idx[strings.TrimSpace(col)] = i
	}
	return idx
}

// AppendEvent serializes the event in this table's column order
// and appends it as the last row.
func (t *Table) AppendEvent(e Event) {
	idx := t.columnIndex()
	row := make([]string, len(t.Header))
	set := func(col, val string) {
		if i, ok := idx[col]; ok {
			row[i] = val
		}
	}

	set(ColDate, e.Date.Format(DateLayout))
	set(ColKind, e.Kind.String())
	set(ColLabel, e.Label)
	set(ColQuantity, formatQuantity(e.Quantity))
	set(ColSets, strconv.Itoa(e.Sets))
	set(ColReps, strconv.Itoa(e.Reps))
	set(ColOwner, e.Owner)
	if e.Goal > 0 {
		set(ColGoal, formatQuantity(e.Goal))
	} else {
		set(ColGoal, "")
	}

	t.Rows = append(t.Rows, row)
}

// eventFromRow coerces one raw sheet row into an Event. An unparsable date
// or an unknown kind fails the row; numeric fields degrade to zero instead,
// the sheet is full of half-filled cells and that was never fatal.
func eventFromRow(idx map[string]int, row []string) (Event, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	dateStr := get(ColDate)
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return Event{}, fmt.Errorf("%w: parse date %q: %s", ErrMalformedRow, dateStr, err)
	}

	kind := EventKind(get(ColKind))
	if !kind.IsValid() {
		return Event{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedRow, kind)
	}

	return Event{
		Date:     date,
		Kind:     kind,
		Label:    get(ColLabel),
		Quantity: parseQuantity(get(ColQuantity)),
		Sets:     parseCount(get(ColSets)),
		Reps:     parseCount(get(ColReps)),
		Goal:     parseQuantity(get(ColGoal)),
		Owner:    strings.TrimSpace(get(ColOwner)),
	}, nil
}

func parseQuantity(s string) float64 {
	if s == "" {
		return 0
	}
	// the sheet frontend wrote decimal commas for a while
	s = strings.ReplaceAll(s, ",", ".")
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return q
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	c, err := strconv.Atoi(s)
	if err != nil {
		// tolerate "3.0" style cells
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return c
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
