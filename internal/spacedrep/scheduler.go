package spacedrep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lchelper/lchelper/internal/store"
)

// Review event outcomes that are not user outcomes.
const (
	eventInit      = "INIT"
	eventRebalance = "REBALANCE"
)

// Scheduler persists schedule state. Every write runs under one mutex and in
// one store transaction, so the day load the allocator reads cannot change
// before the chosen day is written.
type Scheduler struct {
	engine *Engine
	repo   store.RevisionRepo
	log    zerolog.Logger

	mu sync.Mutex
}

// NewScheduler creates a scheduler that writes through repo.
func NewScheduler(engine *Engine, repo store.RevisionRepo, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		engine: engine,
		repo:   repo,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Engine returns the underlying engine.
func (s *Scheduler) Engine() *Engine {
	return s.engine
}

func txCounter(tx store.RevisionTx) DayCounter {
	return DayCounterFunc(func(ctx context.Context, day time.Time) (int, error) {
		return tx.CountScheduledOn(ctx, FormatDay(day))
	})
}

// Track gives a problem its initial schedule. It is a no-op returning the
// existing state when the problem is already tracked; created reports which
// case happened.
func (s *Scheduler) Track(ctx context.Context, problemID int64) (st ScheduleState, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.repo.InTx(ctx, func(tx store.RevisionTx) error {
		rev, err := tx.GetRevision(ctx, problemID)
		switch {
		case err == nil:
			st, err = StateFromRevision(*rev)
			return err
		case !errors.Is(err, store.ErrNotFound):
			return &UnavailableError{Op: "read schedule", Err: err}
		}

		var alloc Allocation
		st, alloc, err = s.engine.NewState(ctx, txCounter(tx), problemID)
		if err != nil {
			return err
		}
		if err := tx.PutRevision(ctx, RevisionFromState(st)); err != nil {
			return &UnavailableError{Op: "write schedule", Err: err}
		}
		if err := tx.AppendReviewEvent(ctx, reviewEvent(problemID, eventInit, 0, 0, alloc)); err != nil {
			return &UnavailableError{Op: "write review event", Err: err}
		}
		created = true
		return nil
	})
	if err != nil {
		return ScheduleState{}, false, classify("track", err)
	}

	if created {
		s.log.Debug().
			Int64("problem_id", problemID).
			Str("next_review", FormatDay(st.NextReviewDate)).
			Msg("problem tracked")
	}
	return st, created, nil
}

// RecordReview applies an outcome to a tracked problem and stores the result.
// confidence, when set, replaces the stored self rating. Either the whole new
// state is written or nothing is.
func (s *Scheduler) RecordReview(ctx context.Context, problemID int64, outcome Outcome, confidence *int) (ScheduleState, Allocation, error) {
	if !outcome.Valid() {
		return ScheduleState{}, Allocation{}, &InvalidOutcomeError{Value: string(outcome)}
	}
	if confidence != nil && (*confidence < 1 || *confidence > 5) {
		return ScheduleState{}, Allocation{}, ErrInvalidConfidence
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		next  ScheduleState
		alloc Allocation
		from  int
	)
	err := s.repo.InTx(ctx, func(tx store.RevisionTx) error {
		rev, err := tx.GetRevision(ctx, problemID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotTracked
		}
		if err != nil {
			return &UnavailableError{Op: "read schedule", Err: err}
		}
		cur, err := StateFromRevision(*rev)
		if err != nil {
			return err
		}
		from = cur.RepetitionCount

		next, alloc, err = s.engine.RecordOutcome(ctx, txCounter(tx), outcome, cur)
		if err != nil {
			return err
		}
		if confidence != nil {
			c := *confidence
			next.Confidence = &c
		}

		if err := tx.PutRevision(ctx, RevisionFromState(next)); err != nil {
			return &UnavailableError{Op: "write schedule", Err: err}
		}
		ev := reviewEvent(problemID, string(outcome), from, next.RepetitionCount, alloc)
		if err := tx.AppendReviewEvent(ctx, ev); err != nil {
			return &UnavailableError{Op: "write review event", Err: err}
		}
		return nil
	})
	if err != nil {
		return ScheduleState{}, Allocation{}, classify("record review", err)
	}

	s.log.Debug().
		Int64("problem_id", problemID).
		Str("outcome", string(outcome)).
		Int("from_count", from).
		Int("to_count", next.RepetitionCount).
		Str("next_review", FormatDay(next.NextReviewDate)).
		Bool("shifted", alloc.Shifted).
		Msg("review recorded")
	return next, alloc, nil
}

// State returns the schedule of one problem, or ErrNotTracked.
func (s *Scheduler) State(ctx context.Context, problemID int64) (ScheduleState, error) {
	var st ScheduleState
	err := s.repo.InTx(ctx, func(tx store.RevisionTx) error {
		rev, err := tx.GetRevision(ctx, problemID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotTracked
		}
		if err != nil {
			return &UnavailableError{Op: "read schedule", Err: err}
		}
		st, err = StateFromRevision(*rev)
		return err
	})
	if err != nil {
		return ScheduleState{}, classify("read schedule", err)
	}
	return st, nil
}

// States returns every tracked schedule keyed by problem id.
func (s *Scheduler) States(ctx context.Context) (map[int64]ScheduleState, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]ScheduleState, len(all))
	for _, st := range all {
		out[st.ItemID] = st
	}
	return out, nil
}

// DueProblems returns the problems due today, soonest first, at most limit
// (NoLimit for all).
func (s *Scheduler) DueProblems(ctx context.Context, limit int) ([]ScheduleState, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.FilterDue(all, limit), nil
}

func (s *Scheduler) all(ctx context.Context) ([]ScheduleState, error) {
	revs, err := s.repo.ListRevisions(ctx)
	if err != nil {
		return nil, &UnavailableError{Op: "list schedules", Err: err}
	}
	return statesFromRevisions(revs)
}

// DayLoad is the number of reviews booked on one day.
type DayLoad struct {
	Date     time.Time `json:"-"`
	Day      string    `json:"date"`
	Count    int       `json:"count"`
	Capacity int       `json:"capacity"`
	Full     bool      `json:"full"`
}

// Calendar returns the load of each day in [from, from+days).
func (s *Scheduler) Calendar(ctx context.Context, from time.Time, days int) ([]DayLoad, error) {
	if days < 1 {
		return nil, fmt.Errorf("calendar needs at least 1 day, got %d", days)
	}
	start := Day(from)
	end := AddDays(start, days-1)

	loads, err := s.repo.DayLoads(ctx, FormatDay(start), FormatDay(end))
	if err != nil {
		return nil, &UnavailableError{Op: "read day loads", Err: err}
	}

	limit := s.engine.Config().DailyLimit
	out := make([]DayLoad, days)
	for i := range out {
		d := AddDays(start, i)
		key := FormatDay(d)
		out[i] = DayLoad{
			Date:     d,
			Day:      key,
			Count:    loads[key],
			Capacity: limit,
			Full:     loads[key] >= limit,
		}
	}
	return out, nil
}

// RebalanceOptions controls Rebalance.
type RebalanceOptions struct {
	// StartOffset is the first day used, in days from today. Zero means the
	// first ladder interval.
	StartOffset int

	// DryRun computes the moves without writing them.
	DryRun bool
}

// Move is one rescheduled problem.
type Move struct {
	ProblemID int64     `json:"problem_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

// Rebalance lays every tracked problem out again from today+StartOffset,
// keeping their current order and placing DailyLimit per day. Repetition
// counts are untouched. Only problems whose day changes are returned.
func (s *Scheduler) Rebalance(ctx context.Context, opts RebalanceOptions) ([]Move, error) {
	if opts.StartOffset < 0 {
		return nil, fmt.Errorf("start offset must not be negative, got %d", opts.StartOffset)
	}
	cfg := s.engine.Config()
	offset := opts.StartOffset
	if offset == 0 {
		offset = cfg.Ladder[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var moves []Move
	err := s.repo.InTx(ctx, func(tx store.RevisionTx) error {
		revs, err := tx.ListRevisions(ctx)
		if err != nil {
			return &UnavailableError{Op: "list schedules", Err: err}
		}
		states, err := statesFromRevisions(revs)
		if err != nil {
			return err
		}

		day := AddDays(s.engine.Today(), offset)
		placed := 0
		for _, st := range states {
			if placed >= cfg.DailyLimit {
				day = AddDays(day, 1)
				placed = 0
			}
			placed++

			if st.NextReviewDate.Equal(day) {
				continue
			}
			moves = append(moves, Move{ProblemID: st.ItemID, From: st.NextReviewDate, To: day})
			if opts.DryRun {
				continue
			}

			st.NextReviewDate = day
			if err := tx.PutRevision(ctx, RevisionFromState(st)); err != nil {
				return &UnavailableError{Op: "write schedule", Err: err}
			}
			ev := store.ReviewEventData{
				ProblemID:    st.ItemID,
				Outcome:      eventRebalance,
				FromCount:    st.RepetitionCount,
				ToCount:      st.RepetitionCount,
				RequestedDay: FormatDay(day),
				ScheduledDay: FormatDay(day),
			}
			if err := tx.AppendReviewEvent(ctx, ev); err != nil {
				return &UnavailableError{Op: "write review event", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify("rebalance", err)
	}

	s.log.Info().
		Int("moved", len(moves)).
		Bool("dry_run", opts.DryRun).
		Msg("schedules rebalanced")
	return moves, nil
}

// ReviewHistory returns the newest scheduling events for a problem.
func (s *Scheduler) ReviewHistory(ctx context.Context, problemID int64, limit int) ([]store.ReviewEventData, error) {
	events, err := s.repo.ListReviewEvents(ctx, problemID, limit)
	if err != nil {
		return nil, &UnavailableError{Op: "list review events", Err: err}
	}
	return events, nil
}

func reviewEvent(problemID int64, outcome string, from, to int, alloc Allocation) store.ReviewEventData {
	return store.ReviewEventData{
		ProblemID:    problemID,
		Outcome:      outcome,
		FromCount:    from,
		ToCount:      to,
		RequestedDay: FormatDay(alloc.Requested),
		ScheduledDay: FormatDay(alloc.Date),
		Shifted:      alloc.Shifted,
		Degraded:     alloc.Degraded,
	}
}

// classify passes typed errors through and marks anything else, such as a
// failed commit, as a store outage.
func classify(op string, err error) error {
	var (
		invalid     *InvalidOutcomeError
		unavailable *UnavailableError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &unavailable),
		errors.Is(err, ErrNotTracked), errors.Is(err, ErrInvalidConfidence),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &UnavailableError{Op: op, Err: err}
}
