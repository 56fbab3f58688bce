package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var noteColumns = []string{"id", colProblemID, "type", "content", "created_at", "updated_at"}

// noteRepo implements NoteRepo.
type noteRepo struct {
	db *sqlx.DB
}

func (r *noteRepo) CreateNote(ctx context.Context, n NoteData) (*NoteData, error) {
	if n.Type == "" {
		n.Type = NoteRecall
	}
	if n.Type != NoteRecall && n.Type != NoteDeep {
		return nil, fmt.Errorf("invalid note type %q", n.Type)
	}
	n.ID = uuid.NewString()
	n.CreatedAt = timestamp()
	n.UpdatedAt = n.CreatedAt

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO notes (id, problem_id, type, content, created_at, updated_at)
		 VALUES (:id, :problem_id, :type, :content, :created_at, :updated_at)`,
		n)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return &n, nil
}

func (r *noteRepo) ListNotes(ctx context.Context, problemID int64) ([]NoteData, error) {
	query, args := builder().
		Select(noteColumns...).
		From(entsql.Table(tableNotes)).
		Where(entsql.EQ(colProblemID, problemID)).
		OrderBy("created_at", "id").
		Query()

	var out []NoteData
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

func (r *noteRepo) UpdateNote(ctx context.Context, id, content string) (*NoteData, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET content = ?, updated_at = ? WHERE id = ?`,
		content, timestamp(), id)
	if err != nil {
		return nil, fmt.Errorf("update note %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update note %s: %w", id, err)
	} else if n == 0 {
		return nil, ErrNotFound
	}

	query, args := builder().
		Select(noteColumns...).
		From(entsql.Table(tableNotes)).
		Where(entsql.EQ("id", id)).
		Query()

	var note NoteData
	if err := r.db.GetContext(ctx, &note, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reload note %s: %w", id, err)
	}
	return &note, nil
}

func (r *noteRepo) DeleteNote(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
