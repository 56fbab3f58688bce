package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Table and column names shared by the query builders.
const (
	tableProblems     = "problems"
	tableSolutions    = "solutions"
	tableRevisions    = "revisions"
	tableNotes        = "notes"
	tableExplanations = "explanations"
	tableReviewEvents = "review_events"
	tableLLMRequests  = "llm_requests"

	colNextReview = "next_review"
	colProblemID  = "problem_id"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS problems (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		slug           TEXT NOT NULL UNIQUE,
		title          TEXT NOT NULL,
		difficulty     TEXT NOT NULL DEFAULT 'Medium',
		problem_number INTEGER,
		description    TEXT,
		constraints    TEXT,
		examples       TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS solutions (
		problem_id   INTEGER PRIMARY KEY REFERENCES problems(id) ON DELETE CASCADE,
		code         TEXT NOT NULL,
		language     TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS revisions (
		problem_id       INTEGER PRIMARY KEY REFERENCES problems(id) ON DELETE CASCADE,
		repetition_count INTEGER NOT NULL DEFAULT 0 CHECK (repetition_count >= 0),
		next_review      TEXT NOT NULL,
		last_reviewed    TEXT,
		total_reviews    INTEGER NOT NULL DEFAULT 0,
		confidence       INTEGER,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_revisions_next_review ON revisions(next_review)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id         TEXT PRIMARY KEY,
		problem_id INTEGER NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
		type       TEXT NOT NULL CHECK (type IN ('RECALL', 'DEEP')),
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_problem ON notes(problem_id)`,
	`CREATE TABLE IF NOT EXISTS explanations (
		problem_id        INTEGER PRIMARY KEY REFERENCES problems(id) ON DELETE CASCADE,
		approach_tag      TEXT NOT NULL,
		core_idea         TEXT NOT NULL,
		explanation_steps TEXT NOT NULL,
		time_complexity   TEXT NOT NULL,
		space_complexity  TEXT NOT NULL,
		key_insight       TEXT NOT NULL,
		common_pitfall    TEXT NOT NULL,
		difficulty_rating TEXT NOT NULL,
		roast             TEXT NOT NULL,
		model             TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS review_events (
		sequence      INTEGER PRIMARY KEY,
		timestamp     TEXT NOT NULL,
		problem_id    INTEGER NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
		outcome       TEXT NOT NULL,
		from_count    INTEGER NOT NULL,
		to_count      INTEGER NOT NULL,
		requested_day TEXT NOT NULL,
		scheduled_day TEXT NOT NULL,
		shifted       INTEGER NOT NULL DEFAULT 0,
		degraded      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_events_problem ON review_events(problem_id)`,
	`CREATE TABLE IF NOT EXISTS llm_requests (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

// migrate creates every table and index that does not exist yet.
func migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
