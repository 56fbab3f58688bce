package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var problemColumns = []string{
	"id", "slug", "title", "difficulty", "problem_number",
	"description", "constraints", "examples", "created_at", "updated_at",
}

// problemRepo implements ProblemRepo.
type problemRepo struct {
	db *sqlx.DB
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *problemRepo) UpsertProblem(ctx context.Context, p ProblemData) (int64, bool, error) {
	if p.Difficulty == "" {
		p.Difficulty = DifficultyMedium
	}
	now := timestamp()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin upsert problem: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.GetContext(ctx, &id, `SELECT id FROM problems WHERE slug = ?`, p.Slug)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return 0, false, fmt.Errorf("lookup problem %q: %w", p.Slug, err)
	}

	if created {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO problems (slug, title, difficulty, problem_number, description, constraints, examples, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Slug, p.Title, p.Difficulty, p.ProblemNumber, p.Description, p.Constraints, p.Examples, now, now)
		if err != nil {
			return 0, false, fmt.Errorf("insert problem %q: %w", p.Slug, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, false, fmt.Errorf("insert problem %q: %w", p.Slug, err)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE problems SET
				title = ?,
				difficulty = ?,
				problem_number = COALESCE(?, problem_number),
				description = COALESCE(?, description),
				constraints = COALESCE(?, constraints),
				examples = COALESCE(?, examples),
				updated_at = ?
			 WHERE id = ?`,
			p.Title, p.Difficulty, p.ProblemNumber, p.Description, p.Constraints, p.Examples, now, id)
		if err != nil {
			return 0, false, fmt.Errorf("update problem %q: %w", p.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit upsert problem: %w", err)
	}
	return id, created, nil
}

func (r *problemRepo) GetProblem(ctx context.Context, slug string) (*ProblemData, error) {
	query, args := builder().
		Select(problemColumns...).
		From(entsql.Table(tableProblems)).
		Where(entsql.EQ("slug", slug)).
		Query()
	return r.getOne(ctx, query, args)
}

func (r *problemRepo) GetProblemByID(ctx context.Context, id int64) (*ProblemData, error) {
	query, args := builder().
		Select(problemColumns...).
		From(entsql.Table(tableProblems)).
		Where(entsql.EQ("id", id)).
		Query()
	return r.getOne(ctx, query, args)
}

func (r *problemRepo) getOne(ctx context.Context, query string, args []any) (*ProblemData, error) {
	var p ProblemData
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query problem: %w", err)
	}
	return &p, nil
}

func (r *problemRepo) ListProblems(ctx context.Context, q ProblemQuery) ([]ProblemData, error) {
	sel := builder().
		Select(problemColumns...).
		From(entsql.Table(tableProblems)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))

	var preds []*entsql.Predicate
	if q.Difficulty != "" {
		preds = append(preds, entsql.EQ("difficulty", q.Difficulty))
	}
	if q.Search != "" {
		preds = append(preds, entsql.Or(
			entsql.Contains("title", q.Search),
			entsql.Contains("slug", q.Search),
		))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}

	query, args := sel.Query()
	var out []ProblemData
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return out, nil
}

func (r *problemRepo) DeleteProblem(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM problems WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("delete problem %q: %w", slug, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete problem %q: %w", slug, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *problemRepo) UpsertSolution(ctx context.Context, s SolutionData) error {
	if s.SubmittedAt == "" {
		s.SubmittedAt = timestamp()
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO solutions (problem_id, code, language, submitted_at)
		 VALUES (:problem_id, :code, :language, :submitted_at)
		 ON CONFLICT(problem_id) DO UPDATE SET
			code = excluded.code,
			language = excluded.language,
			submitted_at = excluded.submitted_at`,
		s)
	if err != nil {
		return fmt.Errorf("upsert solution for problem %d: %w", s.ProblemID, err)
	}
	return nil
}

func (r *problemRepo) GetSolution(ctx context.Context, problemID int64) (*SolutionData, error) {
	query, args := builder().
		Select("problem_id", "code", "language", "submitted_at").
		From(entsql.Table(tableSolutions)).
		Where(entsql.EQ(colProblemID, problemID)).
		Query()

	var s SolutionData
	if err := r.db.GetContext(ctx, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query solution: %w", err)
	}
	return &s, nil
}
