package spacedrep

import (
	"fmt"
	"time"
)

// Ladder is the sequence of review intervals in days, indexed by repetition
// count. Index 0 is the first review after an item enters the system.
type Ladder []int

// DefaultLadder is the interval schedule used when none is configured.
var DefaultLadder = Ladder{2, 3, 7, 21, 60}

const (
	// DefaultDailyLimit is the maximum number of reviews placed on one day.
	DefaultDailyLimit = 3

	// DefaultHorizon is how many days past the target the allocator searches
	// before giving up on the capacity limit.
	DefaultHorizon = 100
)

// IntervalFor returns the interval for repetition count n. Counts at or past
// the end of the ladder keep getting the last (largest) interval.
func (l Ladder) IntervalFor(n int) int {
	if n < 0 {
		n = 0
	}
	if n >= len(l) {
		return l[len(l)-1]
	}
	return l[n]
}

// Validate checks that the ladder can serve every transition: FAIL lands on
// the second entry, so at least two are required.
func (l Ladder) Validate() error {
	if len(l) < 2 {
		return fmt.Errorf("interval ladder needs at least 2 entries, got %d", len(l))
	}
	for i, d := range l {
		if d <= 0 {
			return fmt.Errorf("interval ladder entry %d is %d, must be positive", i, d)
		}
	}
	return nil
}

// Next applies the transition table for one outcome.
//
// FAIL resets the count to 1 and uses the second interval, not the first.
// A lapse costs one rung, not the whole ladder.
func (l Ladder) Next(outcome Outcome, count int) (newCount, intervalDays int, err error) {
	switch outcome {
	case OutcomeSuccess:
		newCount = count + 1
		return newCount, l.IntervalFor(newCount), nil
	case OutcomePartial:
		return count, l.IntervalFor(count), nil
	case OutcomeFail:
		return 1, l[1], nil
	default:
		return 0, 0, &InvalidOutcomeError{Value: string(outcome)}
	}
}

// ComputeNext returns the new repetition count and the raw (uncapped) review
// date for an outcome recorded on today.
func (l Ladder) ComputeNext(outcome Outcome, count int, today time.Time) (int, time.Time, error) {
	newCount, days, err := l.Next(outcome, count)
	if err != nil {
		return 0, time.Time{}, err
	}
	return newCount, AddDays(today, days), nil
}

// InitialSchedule returns the raw first review date for an item added today.
func (l Ladder) InitialSchedule(today time.Time) time.Time {
	return AddDays(today, l[0])
}

// Config holds the engine's tunables.
type Config struct {
	Ladder     Ladder
	DailyLimit int
	Horizon    int

	// Location decides which calendar day "now" falls on. Nil means the
	// process's local zone.
	Location *time.Location
}

// DefaultConfig returns the stock schedule: [2 3 7 21 60], three reviews per
// day, a 100 day search horizon.
func DefaultConfig() Config {
	ladder := make(Ladder, len(DefaultLadder))
	copy(ladder, DefaultLadder)
	return Config{
		Ladder:     ladder,
		DailyLimit: DefaultDailyLimit,
		Horizon:    DefaultHorizon,
		Location:   time.Local,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Ladder.Validate(); err != nil {
		return err
	}
	if c.DailyLimit < 1 {
		return fmt.Errorf("daily limit must be at least 1, got %d", c.DailyLimit)
	}
	if c.Horizon < 1 {
		return fmt.Errorf("horizon must be at least 1 day, got %d", c.Horizon)
	}
	return nil
}
