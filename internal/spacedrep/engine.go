package spacedrep

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Engine computes review dates. It holds no mutable state: every call reads
// the clock and the supplied DayCounter and returns a new ScheduleState.
//
// Engine does not serialize the count-then-write sequence. Two concurrent
// RecordOutcome calls that read the same day load can both be given that
// day, so the daily limit is only best-effort when the caller persists the
// results without coordination. Scheduler provides the serialized path.
type Engine struct {
	cfg   Config
	clock Clock
	log   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to decide what "today" is.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger used for degraded allocations.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule config: %w", err)
	}
	e := &Engine{
		cfg:   cfg,
		clock: SystemClock{Location: cfg.Location},
		log:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Today returns the calendar day the clock reports.
func (e *Engine) Today() time.Time {
	return Day(e.clock.Now())
}

// InitialSchedule returns the raw first review date for a brand-new item.
// The caller passes it through Allocate before persisting it.
func (e *Engine) InitialSchedule() time.Time {
	return e.cfg.Ladder.InitialSchedule(e.Today())
}

// Allocate runs the slot search with the engine's limit and horizon.
func (e *Engine) Allocate(ctx context.Context, rawDate time.Time, counter DayCounter) (Allocation, error) {
	alloc, err := Allocate(ctx, rawDate, e.cfg.DailyLimit, e.cfg.Horizon, counter)
	if err != nil {
		return Allocation{}, err
	}
	if alloc.Degraded {
		e.log.Warn().
			Str("requested", FormatDay(alloc.Requested)).
			Int("daily_limit", e.cfg.DailyLimit).
			Int("horizon_days", e.cfg.Horizon).
			Msg("no review day with spare capacity in horizon; daily limit not guaranteed")
	}
	return alloc, nil
}

// NewState builds the initial schedule state for an item entering the system.
func (e *Engine) NewState(ctx context.Context, counter DayCounter, itemID int64) (ScheduleState, Allocation, error) {
	alloc, err := e.Allocate(ctx, e.InitialSchedule(), counter)
	if err != nil {
		return ScheduleState{}, Allocation{}, err
	}
	return ScheduleState{
		ItemID:          itemID,
		RepetitionCount: 0,
		NextReviewDate:  alloc.Date,
	}, alloc, nil
}

// RecordOutcome applies one review outcome to current and returns the fully
// updated state. Nothing is persisted. On error the zero state is returned.
func (e *Engine) RecordOutcome(ctx context.Context, counter DayCounter, outcome Outcome, current ScheduleState) (ScheduleState, Allocation, error) {
	today := e.Today()

	newCount, raw, err := e.cfg.Ladder.ComputeNext(outcome, current.RepetitionCount, today)
	if err != nil {
		return ScheduleState{}, Allocation{}, err
	}

	alloc, err := e.Allocate(ctx, raw, counter)
	if err != nil {
		return ScheduleState{}, Allocation{}, err
	}

	next := current
	next.RepetitionCount = newCount
	next.NextReviewDate = alloc.Date
	next.LastReviewedDate = &today
	next.TotalReviews = current.TotalReviews + 1
	return next, alloc, nil
}

// FilterDue returns the items due today, soonest first, at most limit.
func (e *Engine) FilterDue(items []ScheduleState, limit int) []ScheduleState {
	return FilterDue(items, e.Today(), limit)
}
