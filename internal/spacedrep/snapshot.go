package spacedrep

import (
	"fmt"

	"github.com/lchelper/lchelper/internal/store"
)

// StateFromRevision converts a stored revision into a ScheduleState.
func StateFromRevision(rev store.RevisionData) (ScheduleState, error) {
	next, err := ParseDay(rev.NextReview)
	if err != nil {
		return ScheduleState{}, fmt.Errorf("revision %d: %w", rev.ProblemID, err)
	}

	st := ScheduleState{
		ItemID:          rev.ProblemID,
		RepetitionCount: rev.RepetitionCount,
		NextReviewDate:  next,
		TotalReviews:    rev.TotalReviews,
		Confidence:      rev.Confidence,
	}
	if rev.LastReviewed != nil {
		last, err := ParseDay(*rev.LastReviewed)
		if err != nil {
			return ScheduleState{}, fmt.Errorf("revision %d: %w", rev.ProblemID, err)
		}
		st.LastReviewedDate = &last
	}
	return st, nil
}

// RevisionFromState converts a ScheduleState into its stored form.
func RevisionFromState(st ScheduleState) store.RevisionData {
	rev := store.RevisionData{
		ProblemID:       st.ItemID,
		RepetitionCount: st.RepetitionCount,
		NextReview:      FormatDay(st.NextReviewDate),
		TotalReviews:    st.TotalReviews,
		Confidence:      st.Confidence,
	}
	if st.LastReviewedDate != nil {
		last := FormatDay(*st.LastReviewedDate)
		rev.LastReviewed = &last
	}
	return rev
}

// statesFromRevisions converts a batch, failing on the first bad row.
func statesFromRevisions(revs []store.RevisionData) ([]ScheduleState, error) {
	out := make([]ScheduleState, 0, len(revs))
	for _, rev := range revs {
		st, err := StateFromRevision(rev)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
