// Package problems is the application layer over the store and scheduler:
// ingesting submissions, answering queries, recording reviews and notes.
package problems

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/store"
)

// Explainer starts background explanations.
type Explainer interface {
	RequestAsync(p store.ProblemData)
}

// Service coordinates problems, schedules, notes and explanations.
type Service struct {
	problems     store.ProblemRepo
	notes        store.NoteRepo
	explanations store.ExplanationRepo
	sched        *spacedrep.Scheduler
	explainer    Explainer
	log          zerolog.Logger
}

// NewService creates a service. explainer may be nil.
func NewService(st *store.Store, sched *spacedrep.Scheduler, explainer Explainer, log zerolog.Logger) *Service {
	return &Service{
		problems:     st.ProblemRepo(),
		notes:        st.NoteRepo(),
		explanations: st.ExplanationRepo(),
		sched:        sched,
		explainer:    explainer,
		log:          log.With().Str("component", "problems").Logger(),
	}
}

// Scheduler returns the scheduler the service writes through.
func (s *Service) Scheduler() *spacedrep.Scheduler {
	return s.sched
}

// Sync stores a submission. A problem seen for the first time is scheduled
// for its first review; resubmitting only refreshes metadata and the
// solution and never touches the schedule.
func (s *Service) Sync(ctx context.Context, in SyncInput) (*SyncResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	id, created, err := s.problems.UpsertProblem(ctx, store.ProblemData{
		Slug:          in.Slug,
		Title:         in.Title,
		Difficulty:    in.Difficulty,
		ProblemNumber: in.ProblemNumber,
		Description:   in.Description,
		Constraints:   in.Constraints,
		Examples:      in.Examples,
	})
	if err != nil {
		return nil, err
	}

	sol := store.SolutionData{ProblemID: id, Code: in.Code, Language: in.Language}
	if in.SubmittedAt != nil {
		sol.SubmittedAt = in.SubmittedAt.UTC().Format(time.RFC3339)
	}
	if err := s.problems.UpsertSolution(ctx, sol); err != nil {
		return nil, err
	}

	st, tracked, err := s.sched.Track(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.problems.GetProblemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{Problem: *p, Created: created, Tracked: tracked, Review: st}

	if s.explainer != nil {
		_, err := s.explanations.GetExplanation(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.explainer.RequestAsync(*p)
			res.ExplanationRequested = true
		case err != nil:
			s.log.Warn().Err(err).Str("slug", p.Slug).Msg("check explanation")
		}
	}

	s.log.Info().
		Str("slug", p.Slug).
		Bool("created", created).
		Bool("tracked", tracked).
		Str("next_review", spacedrep.FormatDay(st.NextReviewDate)).
		Msg("problem synced")
	return res, nil
}

func (in *SyncInput) normalize() error {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	in.Language = strings.TrimSpace(in.Language)

	switch {
	case in.Slug == "":
		return &ValidationError{Field: "slug", Reason: "is required"}
	case in.Title == "":
		return &ValidationError{Field: "title", Reason: "is required"}
	case strings.TrimSpace(in.Code) == "":
		return &ValidationError{Field: "code", Reason: "is required"}
	case in.Language == "":
		return &ValidationError{Field: "language", Reason: "is required"}
	}

	d, err := ParseDifficulty(in.Difficulty)
	if err != nil {
		return err
	}
	in.Difficulty = d
	return nil
}

// ParseDifficulty accepts Easy, Medium or Hard in any case. Empty means
// Medium.
func ParseDifficulty(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return store.DifficultyMedium, nil
	case "easy":
		return store.DifficultyEasy, nil
	case "medium":
		return store.DifficultyMedium, nil
	case "hard":
		return store.DifficultyHard, nil
	}
	return "", &ValidationError{Field: "difficulty", Reason: "must be Easy, Medium or Hard"}
}

// Get returns a problem with its solution, schedule, explanation and notes.
func (s *Service) Get(ctx context.Context, slug string) (*Detail, error) {
	p, err := s.problems.GetProblem(ctx, slug)
	if err != nil {
		return nil, err
	}

	d := &Detail{Summary: Summary{Problem: *p}, Notes: []store.NoteData{}}
	if err := s.attachSchedule(ctx, &d.Summary); err != nil {
		return nil, err
	}

	if sol, err := s.problems.GetSolution(ctx, p.ID); err == nil {
		d.Solution = sol
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if exp, err := s.explanations.GetExplanation(ctx, p.ID); err == nil {
		d.Explanation = exp
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	notes, err := s.notes.ListNotes(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		d.Notes = notes
	}
	return d, nil
}

func (s *Service) attachSchedule(ctx context.Context, sum *Summary) error {
	st, err := s.sched.State(ctx, sum.Problem.ID)
	if errors.Is(err, spacedrep.ErrNotTracked) {
		return nil
	}
	if err != nil {
		return err
	}
	sum.Schedule = &st
	sum.Status = st.Status(s.sched.Engine().Today())
	return nil
}

// List returns problems newest first with their schedules.
func (s *Service) List(ctx context.Context, q store.ProblemQuery) ([]Summary, error) {
	rows, err := s.problems.ListProblems(ctx, q)
	if err != nil {
		return nil, err
	}
	states, err := s.sched.States(ctx)
	if err != nil {
		return nil, err
	}

	today := s.sched.Engine().Today()
	out := make([]Summary, 0, len(rows))
	for _, p := range rows {
		sum := Summary{Problem: p}
		if st, ok := states[p.ID]; ok {
			sum.Schedule = &st
			sum.Status = st.Status(today)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Due returns the problems due today, soonest review day first.
func (s *Service) Due(ctx context.Context, limit int) ([]Summary, error) {
	due, err := s.sched.DueProblems(ctx, limit)
	if err != nil {
		return nil, err
	}

	today := s.sched.Engine().Today()
	out := make([]Summary, 0, len(due))
	for i := range due {
		p, err := s.problems.GetProblemByID(ctx, due[i].ItemID)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Problem: *p, Schedule: &due[i], Status: due[i].Status(today)})
	}
	return out, nil
}

// Review records the outcome of re-solving slug.
func (s *Service) Review(ctx context.Context, slug, outcome string, confidence *int) (*ReviewResult, error) {
	o, err := spacedrep.ParseOutcome(outcome)
	if err != nil {
		return nil, err
	}
	p, err := s.problems.GetProblem(ctx, slug)
	if err != nil {
		return nil, err
	}

	st, alloc, err := s.sched.RecordReview(ctx, p.ID, o, confidence)
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Problem: *p, Schedule: st, Shifted: alloc.Shifted, Degraded: alloc.Degraded}, nil
}

// History returns the newest scheduling events for slug.
func (s *Service) History(ctx context.Context, slug string, limit int) ([]store.ReviewEventData, error) {
	p, err := s.problems.GetProblem(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.sched.ReviewHistory(ctx, p.ID, limit)
}

// Delete removes a problem with its solution, schedule, notes and
// explanation.
func (s *Service) Delete(ctx context.Context, slug string) error {
	if err := s.problems.DeleteProblem(ctx, slug); err != nil {
		return err
	}
	s.log.Info().Str("slug", slug).Msg("problem deleted")
	return nil
}
