package fitlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/ironhub/internal/telemetry/metrics"
	"github.com/2beens/ironhub/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Dashboard holds the scalars the frontend shows for one owner.
type Dashboard struct {
	Owner            string   `json:"owner"`
	Streak           int      `json:"streak"`
	LatestWeight     float64  `json:"latestWeight"`
	PrevWeight       float64  `json:"prevWeight"`
	StartWeight      float64  `json:"startWeight"`
	GoalWeight       float64  `json:"goalWeight"`
	TodayWaterTotal  float64  `json:"todayWaterTotal"`
	LatestWorkout    string   `json:"latestWorkout"`
	PlannedExercises []string `json:"plannedExercises"`
}

type Service struct {
	store    EventStore
	cache    *TableCache
	writer   *EntryWriter
	analyzer *Analyzer
	streak   *StreakCalculator
	metrics  *metrics.Manager
}

func NewService(
	store EventStore,
	cache *TableCache,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		writer:   NewEntryWriter(store, cache),
		analyzer: NewAnalyzer(),
		streak:   NewStreakCalculator(),
		metrics:  metricsManager,
	}
}

// LoadLog pulls the full table (through the read cache) and returns the
// coerced event log of the given owner.
func (s *Service) LoadLog(ctx context.Context, owner string) (_ *EventLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.fitlog.loadLog")
	span.SetAttributes(attribute.String("owner", owner))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	table, cached := s.cache.Get()
	if !cached {
		started := time.Now()
		table, err = s.store.ReadAll(ctx)
		if err != nil {
			s.countStoreErr(err)
			return nil, fmt.Errorf("read table: %w", err)
		}
		s.metrics.HistStoreReadDuration.Observe(time.Since(started).Seconds())
		s.cache.Set(table)
	}

	eventLog := NewEventLog(table, owner)
	if skipped := eventLog.SkippedRows(); skipped > 0 {
		s.metrics.CounterMalformedRows.Add(float64(skipped))
		log.Warnf("event log load: %d malformed rows skipped", skipped)
	}
	return eventLog, nil
}

// Dashboard assembles all derived display values from one log snapshot.
func (s *Service) Dashboard(ctx context.Context, owner string) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.fitlog.dashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	eventLog, err := s.LoadLog(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Owner:            eventLog.Owner(),
		Streak:           s.streak.Days(eventLog),
		LatestWeight:     s.analyzer.LatestWeight(eventLog),
		PrevWeight:       s.analyzer.PrevWeight(eventLog),
		StartWeight:      s.analyzer.StartWeight(eventLog),
		GoalWeight:       s.analyzer.GoalWeight(eventLog),
		TodayWaterTotal:  s.analyzer.TodayWaterTotal(eventLog),
		LatestWorkout:    s.analyzer.LatestWorkoutLabel(eventLog),
		PlannedExercises: s.analyzer.PlannedExercises(eventLog),
	}, nil
}

// Entries returns the full event sequence of the owner, insertion order.
func (s *Service) Entries(ctx context.Context, owner string) ([]Event, error) {
	eventLog, err := s.LoadLog(ctx, owner)
	if err != nil {
		return nil, err
	}
	return eventLog.Events(), nil
}

func (s *Service) AddEntry(ctx context.Context, entry Entry) (_ Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.fitlog.addEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	started := time.Now()
	event, err := s.writer.Append(ctx, entry)
	if err != nil {
		s.countStoreErr(err)
		return Event{}, fmt.Errorf("add entry: %w", err)
	}
	s.metrics.HistStoreWriteDuration.Observe(time.Since(started).Seconds())
	s.metrics.CounterEntriesSaved.WithLabelValues(event.Kind.String()).Inc()

	return event, nil
}

func (s *Service) DeleteLastEntry(ctx context.Context, owner string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.fitlog.deleteLastEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.writer.DeleteLastEntry(ctx, owner); err != nil {
		s.countStoreErr(err)
		return fmt.Errorf("delete last entry: %w", err)
	}
	s.metrics.CounterEntriesDeleted.Inc()
	return nil
}

func (s *Service) DeleteAllForOwner(ctx context.Context, owner string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.fitlog.deleteAllForOwner")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	removed, err := s.writer.DeleteAllForOwner(ctx, owner)
	if err != nil {
		s.countStoreErr(err)
		return 0, fmt.Errorf("delete all for owner: %w", err)
	}
	s.metrics.CounterEntriesDeleted.Add(float64(removed))
	return removed, nil
}

func (s *Service) DeletePlanEntry(ctx context.Context, owner, label string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.fitlog.deletePlanEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.writer.DeletePlanEntry(ctx, owner, label); err != nil {
		s.countStoreErr(err)
		return fmt.Errorf("delete plan entry: %w", err)
	}
	s.metrics.CounterEntriesDeleted.Inc()
	return nil
}

func (s *Service) countStoreErr(err error) {
	switch {
	case errors.Is(err, ErrLostUpdate):
		s.metrics.CounterLostUpdates.Inc()
	case errors.Is(err, ErrRateLimited):
		s.metrics.CounterStoreRateLimited.Inc()
	}
}
