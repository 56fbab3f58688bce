package spacedrep

import (
	"errors"
	"fmt"
)

// Outcome is the result a user reports after re-solving an item.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePartial Outcome = "PARTIAL"
	OutcomeFail    Outcome = "FAIL"
)

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomePartial, OutcomeFail:
		return true
	}
	return false
}

// ParseOutcome accepts exactly SUCCESS, PARTIAL or FAIL. Other spellings,
// including lower case and surrounding spaces, are rejected.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", &InvalidOutcomeError{Value: s}
	}
	return o, nil
}

// InvalidOutcomeError is returned when an outcome is not SUCCESS, PARTIAL or
// FAIL. It is never coerced to a default.
type InvalidOutcomeError struct {
	Value string
}

func (e *InvalidOutcomeError) Error() string {
	return fmt.Sprintf("invalid review outcome %q: must be SUCCESS, PARTIAL, or FAIL", e.Value)
}

// UnavailableError wraps a failure of the capacity or persistence
// collaborator. The engine does not retry; the caller may.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("schedule store unavailable (%s): %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Retryable is always true: the operation left no partial state behind.
func (e *UnavailableError) Retryable() bool { return true }

// ErrNotTracked is returned when an outcome is recorded for an item that has
// no schedule state.
var ErrNotTracked = errors.New("item has no schedule state")

// ErrInvalidConfidence is returned for a self rating outside 1..5.
var ErrInvalidConfidence = errors.New("confidence must be between 1 and 5")
