package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var revisionColumns = []string{
	colProblemID, "repetition_count", colNextReview, "last_reviewed",
	"total_reviews", "confidence", "updated_at",
}

// revisionRepo implements RevisionRepo.
type revisionRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

func (r *revisionRepo) InTx(ctx context.Context, fn func(tx RevisionTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revision tx: %w", err)
	}

	if err := fn(&revisionTx{q: tx, seq: r.seq}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revision tx: %w", err)
	}
	return nil
}

func (r *revisionRepo) ListRevisions(ctx context.Context) ([]RevisionData, error) {
	return listRevisions(ctx, r.db)
}

func (r *revisionRepo) DayLoads(ctx context.Context, from, to string) (map[string]int, error) {
	query, args := builder().
		Select(colNextReview, entsql.As(entsql.Count("*"), "n")).
		From(entsql.Table(tableRevisions)).
		Where(entsql.And(
			entsql.GTE(colNextReview, from),
			entsql.LTE(colNextReview, to),
		)).
		GroupBy(colNextReview).
		Query()

	var rows []struct {
		Day string `db:"next_review"`
		N   int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query day loads: %w", err)
	}

	loads := make(map[string]int, len(rows))
	for _, row := range rows {
		loads[row.Day] = row.N
	}
	return loads, nil
}

func (r *revisionRepo) ListReviewEvents(ctx context.Context, problemID int64, limit int) ([]ReviewEventData, error) {
	sel := builder().
		Select("sequence", "timestamp", colProblemID, "outcome", "from_count", "to_count",
			"requested_day", "scheduled_day", "shifted", "degraded").
		From(entsql.Table(tableReviewEvents)).
		Where(entsql.EQ(colProblemID, problemID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	var out []ReviewEventData
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list review events: %w", err)
	}
	return out, nil
}

// revisionTx implements RevisionTx on an open transaction.
type revisionTx struct {
	q   *sqlx.Tx
	seq *sequenceCounter
}

func (t *revisionTx) CountScheduledOn(ctx context.Context, day string) (int, error) {
	query, args := builder().
		Select(entsql.Count("*")).
		From(entsql.Table(tableRevisions)).
		Where(entsql.EQ(colNextReview, day)).
		Query()

	var n int
	if err := t.q.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count revisions on %s: %w", day, err)
	}
	return n, nil
}

func (t *revisionTx) GetRevision(ctx context.Context, problemID int64) (*RevisionData, error) {
	query, args := builder().
		Select(revisionColumns...).
		From(entsql.Table(tableRevisions)).
		Where(entsql.EQ(colProblemID, problemID)).
		Query()

	var rev RevisionData
	if err := t.q.GetContext(ctx, &rev, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query revision %d: %w", problemID, err)
	}
	return &rev, nil
}

func (t *revisionTx) PutRevision(ctx context.Context, rev RevisionData) error {
	rev.UpdatedAt = timestamp()
	_, err := sqlx.NamedExecContext(ctx, t.q,
		`INSERT INTO revisions (problem_id, repetition_count, next_review, last_reviewed, total_reviews, confidence, updated_at)
		 VALUES (:problem_id, :repetition_count, :next_review, :last_reviewed, :total_reviews, :confidence, :updated_at)
		 ON CONFLICT(problem_id) DO UPDATE SET
			repetition_count = excluded.repetition_count,
			next_review = excluded.next_review,
			last_reviewed = excluded.last_reviewed,
			total_reviews = excluded.total_reviews,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at`,
		rev)
	if err != nil {
		return fmt.Errorf("put revision %d: %w", rev.ProblemID, err)
	}
	return nil
}

func (t *revisionTx) ListRevisions(ctx context.Context) ([]RevisionData, error) {
	return listRevisions(ctx, t.q)
}

func (t *revisionTx) AppendReviewEvent(ctx context.Context, ev ReviewEventData) error {
	seqNum, err := t.seq.Next(ctx, t.q)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ev.Sequence = seqNum
	if ev.Timestamp == "" {
		ev.Timestamp = timestamp()
	}

	_, err = sqlx.NamedExecContext(ctx, t.q,
		`INSERT INTO review_events (sequence, timestamp, problem_id, outcome, from_count, to_count, requested_day, scheduled_day, shifted, degraded)
		 VALUES (:sequence, :timestamp, :problem_id, :outcome, :from_count, :to_count, :requested_day, :scheduled_day, :shifted, :degraded)`,
		ev)
	if err != nil {
		return fmt.Errorf("save review event: %w", err)
	}
	return nil
}

func listRevisions(ctx context.Context, q sqlx.QueryerContext) ([]RevisionData, error) {
	query, args := builder().
		Select(revisionColumns...).
		From(entsql.Table(tableRevisions)).
		OrderBy(colNextReview, colProblemID).
		Query()

	var out []RevisionData
	if err := sqlx.SelectContext(ctx, q, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return out, nil
}
