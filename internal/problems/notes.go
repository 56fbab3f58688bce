package problems

import (
	"context"
	"strings"

	"github.com/lchelper/lchelper/internal/store"
)

// AddNote attaches a RECALL or DEEP note to slug.
func (s *Service) AddNote(ctx context.Context, slug, noteType, content string) (*store.NoteData, error) {
	t, err := parseNoteType(noteType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "is required"}
	}

	p, err := s.problems.GetProblem(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.notes.CreateNote(ctx, store.NoteData{ProblemID: p.ID, Type: t, Content: content})
}

// Notes lists slug's notes oldest first.
func (s *Service) Notes(ctx context.Context, slug string) ([]store.NoteData, error) {
	p, err := s.problems.GetProblem(ctx, slug)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListNotes(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []store.NoteData{}
	}
	return notes, nil
}

// EditNote replaces a note's content.
func (s *Service) EditNote(ctx context.Context, id, content string) (*store.NoteData, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "is required"}
	}
	return s.notes.UpdateNote(ctx, id, content)
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	return s.notes.DeleteNote(ctx, id)
}

func parseNoteType(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case store.NoteRecall:
		return store.NoteRecall, nil
	case store.NoteDeep:
		return store.NoteDeep, nil
	}
	return "", &ValidationError{Field: "type", Reason: "must be RECALL or DEEP"}
}
