package spacedrep

import (
	"context"
	"errors"
	"testing"
	"time"
)

// calendar is an in-memory DayCounter keyed by YYYY-MM-DD.
type calendar map[string]int

func (c calendar) CountScheduledOn(_ context.Context, d time.Time) (int, error) {
	return c[FormatDay(d)], nil
}

func (c calendar) book(d time.Time) {
	c[FormatDay(d)]++
}

func TestAllocate_FreeDayUnchanged(t *testing.T) {
	cal := calendar{"2024-01-05": 2}
	alloc, err := Allocate(context.Background(), day("2024-01-05"), 3, 100, cal)
	if err != nil {
		t.Fatal(err)
	}
	if FormatDay(alloc.Date) != "2024-01-05" || alloc.Shifted || alloc.Degraded {
		t.Errorf("alloc = %+v", alloc)
	}
	if alloc.DaysChecked != 1 {
		t.Errorf("days checked = %d, want 1", alloc.DaysChecked)
	}
}

func TestAllocate_FullDayShiftsForward(t *testing.T) {
	cal := calendar{"2024-01-05": 3}
	alloc, err := Allocate(context.Background(), day("2024-01-05"), 3, 100, cal)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatDay(alloc.Date); got != "2024-01-06" {
		t.Errorf("date = %s, want 2024-01-06", got)
	}
	if !alloc.Shifted || alloc.Degraded {
		t.Errorf("flags = %+v", alloc)
	}
	if FormatDay(alloc.Requested) != "2024-01-05" {
		t.Errorf("requested = %s", FormatDay(alloc.Requested))
	}
}

func TestAllocate_SkipsSeveralFullDays(t *testing.T) {
	cal := calendar{"2024-01-05": 3, "2024-01-06": 4, "2024-01-07": 3}
	alloc, err := Allocate(context.Background(), day("2024-01-05"), 3, 100, cal)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatDay(alloc.Date); got != "2024-01-08" {
		t.Errorf("date = %s, want 2024-01-08", got)
	}
	if alloc.DaysChecked != 4 {
		t.Errorf("days checked = %d, want 4", alloc.DaysChecked)
	}
}

func TestAllocate_NeverEarlier(t *testing.T) {
	cal := calendar{"2024-01-04": 0, "2024-01-05": 3}
	raw := day("2024-01-05")
	for i := 0; i < 50; i++ {
		alloc, err := Allocate(context.Background(), raw, 3, 100, cal)
		if err != nil {
			t.Fatal(err)
		}
		if alloc.Date.Before(raw) {
			t.Fatalf("allocated %s before raw %s", FormatDay(alloc.Date), FormatDay(raw))
		}
		cal.book(alloc.Date)
	}
}

func TestAllocate_HorizonExhaustedDegrades(t *testing.T) {
	cal := calendar{}
	start := day("2024-01-05")
	for i := 0; i < 5; i++ {
		cal[FormatDay(AddDays(start, i))] = 3
	}
	alloc, err := Allocate(context.Background(), start, 3, 5, cal)
	if err != nil {
		t.Fatal(err)
	}
	if !alloc.Degraded {
		t.Fatal("expected degraded allocation")
	}
	if !alloc.Date.Equal(start) || alloc.Shifted {
		t.Errorf("degraded allocation should return raw date, got %+v", alloc)
	}
	if alloc.DaysChecked != 5 {
		t.Errorf("days checked = %d, want 5", alloc.DaysChecked)
	}
}

func TestAllocate_HorizonIncludesLastDay(t *testing.T) {
	cal := calendar{}
	start := day("2024-01-05")
	for i := 0; i < 4; i++ {
		cal[FormatDay(AddDays(start, i))] = 3
	}
	alloc, err := Allocate(context.Background(), start, 3, 5, cal)
	if err != nil {
		t.Fatal(err)
	}
	if alloc.Degraded || FormatDay(alloc.Date) != "2024-01-09" {
		t.Errorf("alloc = %+v", alloc)
	}
}

func TestAllocate_CounterFailure(t *testing.T) {
	cause := errors.New("database is locked")
	counter := DayCounterFunc(func(context.Context, time.Time) (int, error) {
		return 0, cause
	})
	_, err := Allocate(context.Background(), day("2024-01-05"), 3, 100, counter)
	var u *UnavailableError
	if !errors.As(err, &u) {
		t.Fatalf("err = %v, want UnavailableError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}

func TestAllocate_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Allocate(ctx, day("2024-01-05"), 3, 100, calendar{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAllocate_CapacityProperty(t *testing.T) {
	const (
		capacity = 3
		horizon  = 10
	)
	cal := calendar{}
	raw := day("2024-01-03")

	for n := 0; n < capacity*horizon; n++ {
		alloc, err := Allocate(context.Background(), raw, capacity, horizon, cal)
		if err != nil {
			t.Fatal(err)
		}
		if alloc.Degraded {
			t.Fatalf("item %d degraded before the horizon was full", n)
		}
		cal.book(alloc.Date)
	}
	for d, n := range cal {
		if n > capacity {
			t.Errorf("%s has %d items, capacity %d", d, n, capacity)
		}
	}
	if len(cal) != horizon {
		t.Errorf("used %d days, want %d", len(cal), horizon)
	}

	// One more than the horizon can hold falls back to the raw date.
	alloc, err := Allocate(context.Background(), raw, capacity, horizon, cal)
	if err != nil {
		t.Fatal(err)
	}
	if !alloc.Degraded || !alloc.Date.Equal(raw) {
		t.Errorf("overflow alloc = %+v", alloc)
	}
}
