package fitlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/ironhub/internal/telemetry/tracing"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrValidation - the entry was rejected locally, nothing touched the store.
	ErrValidation = errors.New("entry validation failed")

	// ErrEntryNotFound - a delete matched no row of the owner.
	ErrEntryNotFound = errors.New("entry not found")
)

// Entry is the user input for one new event.
type Entry struct {
	Date     string    `json:"date" validate:"required,datetime=2006-01-02"`
	Kind     EventKind `json:"kind" validate:"required"`
	Label    string    `json:"label" validate:"required"`
	Quantity float64   `json:"quantity" validate:"gte=0"`
	Sets     int       `json:"sets" validate:"gte=0"`
	Reps     int       `json:"reps" validate:"gte=0"`
	Goal     float64   `json:"goal" validate:"gte=0"`
	Owner    string    `json:"owner" validate:"required"`
}

// EntryWriter is the only component that mutates the shared table. Every
// mutation is one full read-modify-write cycle: read the entire table
// fresh (never through the cache), change it, write the entire table back,
// then invalidate the read cache.
//
// Two writers interleaving their cycles still race - the prevRows guard
// given to WriteAll makes the clobbering detectable, not impossible.
// For a personal tool with effectively one writer that is the accepted
// trade-off.
type EntryWriter struct {
	store    EventStore
	cache    *TableCache
	validate *validator.Validate
}

func NewEntryWriter(store EventStore, cache *TableCache) *EntryWriter {
	return &EntryWriter{
		store:    store,
		cache:    cache,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Append validates the entry and appends it as one new row.
func (w *EntryWriter) Append(ctx context.Context, entry Entry) (_ Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entryWriter.append")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	event, err := w.entryToEvent(entry)
	if err != nil {
		return Event{}, err
	}

	table, err := w.store.ReadAll(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("read table: %w", err)
	}

	prevRows := len(table.Rows)
	table.AppendEvent(event)

	if err := w.store.WriteAll(ctx, table, prevRows); err != nil {
		return Event{}, fmt.Errorf("write table: %w", err)
	}

	w.invalidateCache()
	return event, nil
}

// DeleteLastEntry removes the most recent row belonging to the given
// owner. Scoped to the owner on purpose: dropping the last row of the
// whole shared table would delete someone else's entry.
func (w *EntryWriter) DeleteLastEntry(ctx context.Context, owner string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entryWriter.deleteLast")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	owner = strings.TrimSpace(owner)
	if owner == "" {
		return fmt.Errorf("%w: owner is required", ErrValidation)
	}

	table, err := w.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read table: %w", err)
	}

	idx := table.columnIndex()
	lastOwned := -1
	for i, row := range table.Rows {
		if rowOwner(idx, row) == owner {
			lastOwned = i
		}
	}
	if lastOwned < 0 {
		return ErrEntryNotFound
	}

	prevRows := len(table.Rows)
	table.Rows = append(table.Rows[:lastOwned], table.Rows[lastOwned+1:]...)

	if err := w.store.WriteAll(ctx, table, prevRows); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	w.invalidateCache()
	return nil
}

// DeleteAllForOwner removes every row of the owner (account deletion).
// Returns the number of removed rows.
func (w *EntryWriter) DeleteAllForOwner(ctx context.Context, owner string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entryWriter.deleteAllForOwner")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	owner = strings.TrimSpace(owner)
	if owner == "" {
		return 0, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	table, err := w.store.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read table: %w", err)
	}

	idx := table.columnIndex()
	prevRows := len(table.Rows)
	kept := table.Rows[:0:0]
	for _, row := range table.Rows {
		if rowOwner(idx, row) == owner {
			continue
		}
		kept = append(kept, row)
	}

	removed := prevRows - len(kept)
	if removed == 0 {
		return 0, nil
	}
	table.Rows = kept

	if err := w.store.WriteAll(ctx, table, prevRows); err != nil {
		return 0, fmt.Errorf("write table: %w", err)
	}

	w.invalidateCache()
	log.Debugf("deleted all %d entries of [%s]", removed, owner)
	return removed, nil
}

// DeletePlanEntry removes the plan rows of the owner with the given label.
func (w *EntryWriter) DeletePlanEntry(ctx context.Context, owner, label string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "entryWriter.deletePlanEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	owner = strings.TrimSpace(owner)
	if owner == "" || label == "" {
		return fmt.Errorf("%w: owner and label are required", ErrValidation)
	}

	table, err := w.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read table: %w", err)
	}

	idx := table.columnIndex()
	prevRows := len(table.Rows)
	kept := table.Rows[:0:0]
	for _, row := range table.Rows {
		if rowOwner(idx, row) == owner &&
			rowCell(idx, row, ColKind) == KindPlan.String() &&
			rowCell(idx, row, ColLabel) == label {
			continue
		}
		kept = append(kept, row)
	}

	if len(kept) == prevRows {
		return ErrEntryNotFound
	}
	table.Rows = kept

	if err := w.store.WriteAll(ctx, table, prevRows); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	w.invalidateCache()
	return nil
}

func (w *EntryWriter) entryToEvent(entry Entry) (Event, error) {
	entry.Owner = strings.TrimSpace(entry.Owner)
	entry.Label = strings.TrimSpace(entry.Label)

	if err := w.validate.Struct(entry); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			first := validationErrs[0]
			return Event{}, fmt.Errorf("%w: field %s: %s", ErrValidation, first.Field(), first.Tag())
		}
		return Event{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	if !entry.Kind.IsValid() {
		return Event{}, fmt.Errorf("%w: unknown kind %q", ErrValidation, entry.Kind)
	}

	date, err := time.Parse(DateLayout, entry.Date)
	if err != nil {
		return Event{}, fmt.Errorf("%w: parse date: %s", ErrValidation, err)
	}

	return Event{
		Date:     date,
		Kind:     entry.Kind,
		Label:    entry.Label,
		Quantity: entry.Quantity,
		Sets:     entry.Sets,
		Reps:     entry.Reps,
		Goal:     entry.Goal,
		Owner:    entry.Owner,
	}, nil
}

func (w *EntryWriter) invalidateCache() {
	if w.cache != nil {
		w.cache.Invalidate()
	}
}

func rowOwner(idx map[string]int, row []string) string {
	return strings.TrimSpace(rowCell(idx, row, ColOwner))
}

func rowCell(idx map[string]int, row []string, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
