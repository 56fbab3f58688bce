package spacedrep

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lchelper/lchelper/internal/store"
)

type testEnv struct {
	store *store.Store
	sched *Scheduler
	clock *movableClock
}

// movableClock lets a test advance "today" between operations.
type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) set(d string) {
	c.mu.Lock()
	c.now = day(d)
	c.mu.Unlock()
}

func newTestEnv(t *testing.T, today string) *testEnv {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "sched.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := &movableClock{now: day(today)}
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	engine, err := NewEngine(cfg, WithClock(clock))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &testEnv{
		store: s,
		sched: NewScheduler(engine, s.RevisionRepo(), zerolog.Nop()),
		clock: clock,
	}
}

func (env *testEnv) problem(t *testing.T, slug string) int64 {
	t.Helper()
	id, _, err := env.store.ProblemRepo().UpsertProblem(context.Background(), store.ProblemData{
		Slug: slug, Title: slug, Difficulty: store.DifficultyMedium,
	})
	if err != nil {
		t.Fatalf("upsert %s: %v", slug, err)
	}
	return id
}

func TestScheduler_TrackIsIdempotent(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()
	id := env.problem(t, "two-sum")

	st, created, err := env.sched.Track(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !created || FormatDay(st.NextReviewDate) != "2024-01-03" || st.RepetitionCount != 0 {
		t.Errorf("first track: created=%v state=%+v", created, st)
	}

	env.clock.set("2024-01-02")
	again, created, err := env.sched.Track(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if created || !again.NextReviewDate.Equal(st.NextReviewDate) {
		t.Errorf("second track: created=%v state=%+v", created, again)
	}

	events, err := env.sched.ReviewHistory(ctx, id, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Outcome != "INIT" {
		t.Errorf("events = %+v", events)
	}
}

func TestScheduler_TrackRespectsDailyLimit(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()

	perDay := map[string]int{}
	for i := 0; i < 7; i++ {
		st, _, err := env.sched.Track(ctx, env.problem(t, fmt.Sprintf("p%d", i)))
		if err != nil {
			t.Fatal(err)
		}
		perDay[FormatDay(st.NextReviewDate)]++
	}
	want := map[string]int{"2024-01-03": 3, "2024-01-04": 3, "2024-01-05": 1}
	for d, n := range want {
		if perDay[d] != n {
			t.Errorf("%s: %d items, want %d (all: %v)", d, perDay[d], n, perDay)
		}
	}
}

func TestScheduler_RecordReview(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()
	id := env.problem(t, "two-sum")
	if _, _, err := env.sched.Track(ctx, id); err != nil {
		t.Fatal(err)
	}

	env.clock.set("2024-01-03")
	conf := 5
	st, alloc, err := env.sched.RecordReview(ctx, id, OutcomeSuccess, &conf)
	if err != nil {
		t.Fatal(err)
	}
	if st.RepetitionCount != 1 || FormatDay(st.NextReviewDate) != "2024-01-06" || st.TotalReviews != 1 {
		t.Errorf("state = %+v", st)
	}
	if st.Confidence == nil || *st.Confidence != 5 {
		t.Errorf("confidence = %v", st.Confidence)
	}
	if alloc.Shifted {
		t.Errorf("unexpected shift: %+v", alloc)
	}

	stored, err := env.sched.State(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.RepetitionCount != 1 || !stored.NextReviewDate.Equal(st.NextReviewDate) {
		t.Errorf("stored = %+v", stored)
	}
	if stored.LastReviewedDate == nil || FormatDay(*stored.LastReviewedDate) != "2024-01-03" {
		t.Errorf("last reviewed = %v", stored.LastReviewedDate)
	}

	env.clock.set("2024-01-06")
	st, _, err = env.sched.RecordReview(ctx, id, OutcomeFail, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.RepetitionCount != 1 || FormatDay(st.NextReviewDate) != "2024-01-09" || st.TotalReviews != 2 {
		t.Errorf("after fail = %+v", st)
	}
	if st.Confidence == nil || *st.Confidence != 5 {
		t.Errorf("confidence should carry over, got %v", st.Confidence)
	}

	events, err := env.sched.ReviewHistory(ctx, id, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 || events[0].Outcome != "FAIL" || events[0].FromCount != 1 || events[0].ToCount != 1 {
		t.Errorf("events = %+v", events)
	}
}

func TestScheduler_RecordReviewShiftsPastFullDay(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()

	// Fill 2024-01-03 with three new problems.
	for i := 0; i < 3; i++ {
		if _, _, err := env.sched.Track(ctx, env.problem(t, fmt.Sprintf("fill%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	// A problem tracked on 2023-12-30 is reviewed today with PARTIAL at
	// count 0: raw day is 2024-01-03, which is full.
	env.clock.set("2023-12-30")
	id := env.problem(t, "target")
	if _, _, err := env.sched.Track(ctx, id); err != nil {
		t.Fatal(err)
	}
	env.clock.set("2024-01-01")
	st, alloc, err := env.sched.RecordReview(ctx, id, OutcomePartial, nil)
	if err != nil {
		t.Fatal(err)
	}
	if FormatDay(alloc.Requested) != "2024-01-03" || FormatDay(st.NextReviewDate) != "2024-01-04" || !alloc.Shifted {
		t.Errorf("alloc = %+v next = %s", alloc, FormatDay(st.NextReviewDate))
	}

	events, err := env.sched.ReviewHistory(ctx, id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || !events[0].Shifted || events[0].RequestedDay != "2024-01-03" || events[0].ScheduledDay != "2024-01-04" {
		t.Errorf("event = %+v", events)
	}
}

func TestScheduler_RecordReviewErrors(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()
	id := env.problem(t, "two-sum")

	if _, _, err := env.sched.RecordReview(ctx, id, OutcomeSuccess, nil); !errors.Is(err, ErrNotTracked) {
		t.Errorf("untracked: err = %v, want ErrNotTracked", err)
	}

	if _, _, err := env.sched.Track(ctx, id); err != nil {
		t.Fatal(err)
	}
	var invalid *InvalidOutcomeError
	if _, _, err := env.sched.RecordReview(ctx, id, "NOPE", nil); !errors.As(err, &invalid) {
		t.Errorf("bad outcome: err = %v", err)
	}
	bad := 9
	if _, _, err := env.sched.RecordReview(ctx, id, OutcomeSuccess, &bad); !errors.Is(err, ErrInvalidConfidence) {
		t.Errorf("bad confidence: err = %v", err)
	}

	st, err := env.sched.State(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalReviews != 0 {
		t.Errorf("failed calls changed state: %+v", st)
	}
}

func TestScheduler_ConcurrentReviewsKeepDailyLimit(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()

	const n = 12
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = env.problem(t, fmt.Sprintf("p%d", i))
		if _, _, err := env.sched.Track(ctx, ids[i]); err != nil {
			t.Fatal(err)
		}
	}

	env.clock.set("2024-01-10")
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, _, err := env.sched.RecordReview(ctx, id, OutcomeFail, nil); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent review: %v", err)
	}

	loads, err := env.sched.Calendar(ctx, day("2024-01-10"), 30)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, l := range loads {
		if l.Count > l.Capacity {
			t.Errorf("%s has %d reviews, capacity %d", l.Day, l.Count, l.Capacity)
		}
		total += l.Count
	}
	if total != n {
		t.Errorf("calendar holds %d reviews, want %d", total, n)
	}
}

func TestScheduler_DueProblems(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, _, err := env.sched.Track(ctx, env.problem(t, fmt.Sprintf("p%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	due, err := env.sched.DueProblems(ctx, NoLimit)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("nothing should be due yet, got %d", len(due))
	}

	env.clock.set("2024-01-03")
	due, err = env.sched.DueProblems(ctx, NoLimit)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 3 {
		t.Errorf("due on 01-03 = %d, want 3", len(due))
	}

	env.clock.set("2024-01-10")
	due, err = env.sched.DueProblems(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || FormatDay(due[0].NextReviewDate) != "2024-01-03" {
		t.Errorf("due = %+v", due)
	}
}

func TestScheduler_Calendar(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, _, err := env.sched.Track(ctx, env.problem(t, fmt.Sprintf("p%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	loads, err := env.sched.Calendar(ctx, day("2024-01-02"), 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		day   string
		count int
		full  bool
	}{
		{"2024-01-02", 0, false},
		{"2024-01-03", 3, true},
		{"2024-01-04", 1, false},
		{"2024-01-05", 0, false},
	}
	if len(loads) != len(want) {
		t.Fatalf("len = %d", len(loads))
	}
	for i, w := range want {
		if loads[i].Day != w.day || loads[i].Count != w.count || loads[i].Full != w.full || loads[i].Capacity != 3 {
			t.Errorf("loads[%d] = %+v, want %+v", i, loads[i], w)
		}
	}

	if _, err := env.sched.Calendar(ctx, day("2024-01-02"), 0); err == nil {
		t.Error("expected error for zero days")
	}
}

func TestScheduler_Rebalance(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()

	// Five problems booked on one day, over the limit.
	ids := make([]int64, 5)
	for i := range ids {
		ids[i] = env.problem(t, fmt.Sprintf("p%d", i))
	}
	err := env.store.RevisionRepo().InTx(ctx, func(tx store.RevisionTx) error {
		for _, id := range ids {
			if err := tx.PutRevision(ctx, store.RevisionData{ProblemID: id, RepetitionCount: 2, NextReview: "2024-01-02"}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	moves, err := env.sched.Rebalance(ctx, RebalanceOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 5 {
		t.Fatalf("dry run moves = %d, want 5", len(moves))
	}
	st, err := env.sched.State(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if FormatDay(st.NextReviewDate) != "2024-01-02" {
		t.Errorf("dry run wrote changes: %s", FormatDay(st.NextReviewDate))
	}

	moves, err = env.sched.Rebalance(ctx, RebalanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 5 {
		t.Fatalf("moves = %d, want 5", len(moves))
	}
	loads, err := env.sched.Calendar(ctx, day("2024-01-01"), 10)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]int{}
	for _, l := range loads {
		if l.Count > 0 {
			got[l.Day] = l.Count
		}
	}
	if got["2024-01-03"] != 3 || got["2024-01-04"] != 2 || len(got) != 2 {
		t.Errorf("after rebalance = %v", got)
	}

	st, err = env.sched.State(ctx, ids[4])
	if err != nil {
		t.Fatal(err)
	}
	if st.RepetitionCount != 2 {
		t.Errorf("rebalance changed repetition count: %d", st.RepetitionCount)
	}

	again, err := env.sched.Rebalance(ctx, RebalanceOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second rebalance moved %d", len(again))
	}

	if _, err := env.sched.Rebalance(ctx, RebalanceOptions{StartOffset: -1}); err == nil {
		t.Error("expected error for negative offset")
	}
}

// brokenRepo fails every call.
type brokenRepo struct{ err error }

func (b brokenRepo) InTx(context.Context, func(store.RevisionTx) error) error { return b.err }
func (b brokenRepo) ListRevisions(context.Context) ([]store.RevisionData, error) {
	return nil, b.err
}
func (b brokenRepo) DayLoads(context.Context, string, string) (map[string]int, error) {
	return nil, b.err
}
func (b brokenRepo) ListReviewEvents(context.Context, int64, int) ([]store.ReviewEventData, error) {
	return nil, b.err
}

func TestScheduler_StoreFailureIsUnavailable(t *testing.T) {
	cause := errors.New("disk I/O error")
	engine, err := NewEngine(DefaultConfig(), WithClock(FixedClock(day("2024-01-01"))))
	if err != nil {
		t.Fatal(err)
	}
	sched := NewScheduler(engine, brokenRepo{err: cause}, zerolog.Nop())
	ctx := context.Background()

	_, _, trackErr := sched.Track(ctx, 1)
	_, _, reviewErr := sched.RecordReview(ctx, 1, OutcomeSuccess, nil)
	_, dueErr := sched.DueProblems(ctx, NoLimit)
	_, calErr := sched.Calendar(ctx, day("2024-01-01"), 7)

	for name, err := range map[string]error{
		"track": trackErr, "review": reviewErr, "due": dueErr, "calendar": calErr,
	} {
		var u *UnavailableError
		if !errors.As(err, &u) {
			t.Errorf("%s: err = %v, want UnavailableError", name, err)
			continue
		}
		if !errors.Is(err, cause) {
			t.Errorf("%s: cause not wrapped", name)
		}
	}
}

func TestRevisionConversionRoundTrip(t *testing.T) {
	last := day("2024-01-01")
	conf := 3
	st := ScheduleState{
		ItemID: 9, RepetitionCount: 4, NextReviewDate: day("2024-03-01"),
		LastReviewedDate: &last, TotalReviews: 7, Confidence: &conf,
	}
	rev := RevisionFromState(st)
	if rev.NextReview != "2024-03-01" || rev.LastReviewed == nil || *rev.LastReviewed != "2024-01-01" {
		t.Errorf("rev = %+v", rev)
	}
	back, err := StateFromRevision(rev)
	if err != nil {
		t.Fatal(err)
	}
	if !back.NextReviewDate.Equal(st.NextReviewDate) || !back.LastReviewedDate.Equal(last) || back.TotalReviews != 7 {
		t.Errorf("back = %+v", back)
	}

	if _, err := StateFromRevision(store.RevisionData{NextReview: "garbage"}); err == nil {
		t.Error("expected error for bad day")
	}
}
