package problems

import (
	"fmt"
	"time"

	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/store"
)

// ValidationError reports a rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// SyncInput is one accepted submission as sent by the browser extension.
type SyncInput struct {
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Difficulty    string     `json:"difficulty"`
	Code          string     `json:"code"`
	Language      string     `json:"language"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	ProblemNumber *int64     `json:"problemNumber,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Constraints   *string    `json:"constraints,omitempty"`
	Examples      *string    `json:"examples,omitempty"`
}

// SyncResult describes what Sync changed.
type SyncResult struct {
	Problem store.ProblemData       `json:"problem"`
	Created bool                    `json:"created"`
	Tracked bool                    `json:"tracked"` // a schedule was created by this call
	Review  spacedrep.ScheduleState `json:"revision"`

	// ExplanationRequested is set when a background explanation was started.
	ExplanationRequested bool `json:"explanation_requested"`
}

// Summary is a problem row with its schedule, if tracked.
type Summary struct {
	Problem  store.ProblemData        `json:"problem"`
	Schedule *spacedrep.ScheduleState `json:"revision,omitempty"`
	Status   spacedrep.ReviewStatus   `json:"status,omitempty"`
}

// Detail is everything known about one problem.
type Detail struct {
	Summary
	Solution    *store.SolutionData    `json:"solution,omitempty"`
	Explanation *store.ExplanationData `json:"explanation,omitempty"`
	Notes       []store.NoteData       `json:"notes"`
}

// ReviewResult is the schedule after a review.
type ReviewResult struct {
	Problem  store.ProblemData       `json:"problem"`
	Schedule spacedrep.ScheduleState `json:"revision"`
	Shifted  bool                    `json:"shifted"`
	Degraded bool                    `json:"degraded"`
}
