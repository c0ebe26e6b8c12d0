package fitlog

import (
	"iter"
	"strings"

	log "github.com/sirupsen/logrus"
)

// EventLog is the ordered, owner-filtered, type-coerced view over the raw
// table. Order is table insertion order, not date order - users backfill.
type EventLog struct {
	owner       string
	events      []Event
	skippedRows int
}

// NewEventLog coerces the raw table into the event sequence of one owner.
// Rows that fail coercion are dropped one by one, never the whole load;
// an unknown owner simply yields an empty log.
func NewEventLog(t Table, owner string) *EventLog {
	owner = strings.TrimSpace(owner)
	el := &EventLog{owner: owner}

	idx := t.columnIndex()
	for i, row := range t.Rows {
		event, err := eventFromRow(idx, row)
		if err != nil {
			el.skippedRows++
			log.Debugf("event log for [%s]: skip row %d: %s", owner, i, err)
			continue
		}
		if event.Owner != owner {
			continue
		}
		el.events = append(el.events, event)
	}

	return el
}

func (el *EventLog) Owner() string {
	return el.owner
}

func (el *EventLog) Len() int {
	return len(el.events)
}

// SkippedRows reports how many rows of the raw table failed coercion.
// Note this counts across all owners, the rows are dropped before the
// owner filter can apply.
func (el *EventLog) SkippedRows() int {
	return el.skippedRows
}

// Events returns the full coerced sequence, in insertion order.
func (el *EventLog) Events() []Event {
	return el.events
}

// ByKind is a lazy, restartable view over the events of one kind,
// insertion order preserved. No intermediate slice is built.
func (el *EventLog) ByKind(kind EventKind) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, e := range el.events {
			if e.Kind != kind {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// First returns the first event of the given kind in insertion order.
func (el *EventLog) First(kind EventKind) (Event, bool) {
	for e := range el.ByKind(kind) {
		return e, true
	}
	return Event{}, false
}

// Last returns the last event of the given kind in insertion order.
// Duplicate same-day entries are legal, last by row order wins.
func (el *EventLog) Last(kind EventKind) (Event, bool) {
	for i := len(el.events) - 1; i >= 0; i-- {
		if el.events[i].Kind == kind {
			return el.events[i], true
		}
	}
	return Event{}, false
}
