package spacedrep

import (
	"context"
	"time"
)

// DayCounter reports how many items already have their next review on a
// given calendar day.
type DayCounter interface {
	CountScheduledOn(ctx context.Context, day time.Time) (int, error)
}

// DayCounterFunc adapts a function to DayCounter.
type DayCounterFunc func(ctx context.Context, day time.Time) (int, error)

func (f DayCounterFunc) CountScheduledOn(ctx context.Context, day time.Time) (int, error) {
	return f(ctx, day)
}

// Allocation is the allocator's result.
type Allocation struct {
	// Date is the day the item should be reviewed.
	Date time.Time

	// Requested is the raw target the search started from.
	Requested time.Time

	// Shifted is set when Date is later than Requested.
	Shifted bool

	// Degraded is set when every day in the horizon was full. Date is then
	// Requested and the daily limit is not guaranteed for that day.
	Degraded bool

	// DaysChecked is the number of days whose load was queried.
	DaysChecked int
}

// Allocate walks forward from rawDate one calendar day at a time and returns
// the first day whose load is below capacity. At most horizon days are
// examined (rawDate itself plus horizon-1 following days). If all of them are
// full the raw date is returned unchanged with Degraded set.
//
// The allocator never moves an item earlier than rawDate and never touches
// other items. Counter failures abort the search with an *UnavailableError.
func Allocate(ctx context.Context, rawDate time.Time, capacity, horizon int, counter DayCounter) (Allocation, error) {
	start := Day(rawDate)
	alloc := Allocation{Date: start, Requested: start}

	for i := 0; i < horizon; i++ {
		if err := ctx.Err(); err != nil {
			return Allocation{}, err
		}
		candidate := start.AddDate(0, 0, i)
		n, err := counter.CountScheduledOn(ctx, candidate)
		alloc.DaysChecked++
		if err != nil {
			return Allocation{}, &UnavailableError{Op: "count scheduled on " + FormatDay(candidate), Err: err}
		}
		if n < capacity {
			alloc.Date = candidate
			alloc.Shifted = i > 0
			return alloc, nil
		}
	}

	alloc.Degraded = true
	return alloc, nil
}
