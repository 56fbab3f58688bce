package spacedrep

import (
	"sort"
	"time"
)

// ScheduleState holds the spaced repetition state for one tracked item.
type ScheduleState struct {
	ItemID           int64      `json:"item_id"`
	RepetitionCount  int        `json:"repetition_count"`
	NextReviewDate   time.Time  `json:"next_review_date"`
	LastReviewedDate *time.Time `json:"last_reviewed_date,omitempty"`
	TotalReviews     int        `json:"total_reviews"`
	Confidence       *int       `json:"confidence,omitempty"`
}

// IsDue reports whether a review scheduled for next is due on today. Both
// values are compared as calendar days.
func IsDue(next, today time.Time) bool {
	return !Day(next).After(Day(today))
}

// IsDue returns true if the item is due on today (at or past its review day).
func (s *ScheduleState) IsDue(today time.Time) bool {
	return IsDue(s.NextReviewDate, today)
}

// OverdueDays returns how many whole days past due the item is. Returns 0 if
// not yet due.
func (s *ScheduleState) OverdueDays(today time.Time) int {
	n := DaysBetween(s.NextReviewDate, today)
	if n < 0 {
		return 0
	}
	return n
}

// DaysUntilReview returns the number of days until the next review.
// Returns 0 if already due.
func (s *ScheduleState) DaysUntilReview(today time.Time) int {
	n := DaysBetween(today, s.NextReviewDate)
	if n < 0 {
		return 0
	}
	return n
}

// ReviewStatus describes an item's review status for display.
type ReviewStatus string

const (
	ReviewScheduled ReviewStatus = "scheduled"
	ReviewDue       ReviewStatus = "due"
	ReviewOverdue   ReviewStatus = "overdue"
)

// Status returns due on the review day itself, overdue after it.
func (s *ScheduleState) Status(today time.Time) ReviewStatus {
	switch {
	case !s.IsDue(today):
		return ReviewScheduled
	case s.OverdueDays(today) > 0:
		return ReviewOverdue
	default:
		return ReviewDue
	}
}

// NoLimit makes FilterDue return every due item.
const NoLimit = -1

// FilterDue returns the items due on today, soonest review day first (ties by
// item id), truncated to limit. A limit of zero returns nothing; a negative
// limit such as NoLimit returns every due item.
func FilterDue(items []ScheduleState, today time.Time, limit int) []ScheduleState {
	var due []ScheduleState
	for _, it := range items {
		if IsDue(it.NextReviewDate, today) {
			due = append(due, it)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := Day(due[i].NextReviewDate), Day(due[j].NextReviewDate)
		if !a.Equal(b) {
			return a.Before(b)
		}
		return due[i].ItemID < due[j].ItemID
	})

	if limit >= 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}
