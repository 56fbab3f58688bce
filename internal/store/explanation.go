package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// explanationRow is the flat table shape; steps are a JSON array.
type explanationRow struct {
	ProblemID        int64  `db:"problem_id"`
	ApproachTag      string `db:"approach_tag"`
	CoreIdea         string `db:"core_idea"`
	ExplanationSteps string `db:"explanation_steps"`
	TimeComplexity   string `db:"time_complexity"`
	SpaceComplexity  string `db:"space_complexity"`
	KeyInsight       string `db:"key_insight"`
	CommonPitfall    string `db:"common_pitfall"`
	DifficultyRating string `db:"difficulty_rating"`
	Roast            string `db:"roast"`
	Model            string `db:"model"`
	CreatedAt        string `db:"created_at"`
}

// explanationRepo implements ExplanationRepo.
type explanationRepo struct {
	db *sqlx.DB
}

func (r *explanationRepo) GetExplanation(ctx context.Context, problemID int64) (*ExplanationData, error) {
	query, args := builder().
		Select("problem_id", "approach_tag", "core_idea", "explanation_steps",
			"time_complexity", "space_complexity", "key_insight", "common_pitfall",
			"difficulty_rating", "roast", "model", "created_at").
		From(entsql.Table(tableExplanations)).
		Where(entsql.EQ(colProblemID, problemID)).
		Query()

	var row explanationRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query explanation: %w", err)
	}

	e := &ExplanationData{
		ProblemID:        row.ProblemID,
		ApproachTag:      row.ApproachTag,
		CoreIdea:         row.CoreIdea,
		TimeComplexity:   row.TimeComplexity,
		SpaceComplexity:  row.SpaceComplexity,
		KeyInsight:       row.KeyInsight,
		CommonPitfall:    row.CommonPitfall,
		DifficultyRating: row.DifficultyRating,
		Roast:            row.Roast,
		Model:            row.Model,
		CreatedAt:        row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.ExplanationSteps), &e.ExplanationSteps); err != nil {
		return nil, fmt.Errorf("decode explanation steps: %w", err)
	}
	return e, nil
}

func (r *explanationRepo) SaveExplanation(ctx context.Context, e ExplanationData) error {
	steps := e.ExplanationSteps
	if steps == nil {
		steps = []string{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("encode explanation steps: %w", err)
	}
	if e.CreatedAt == "" {
		e.CreatedAt = timestamp()
	}

	row := explanationRow{
		ProblemID:        e.ProblemID,
		ApproachTag:      e.ApproachTag,
		CoreIdea:         e.CoreIdea,
		ExplanationSteps: string(stepsJSON),
		TimeComplexity:   e.TimeComplexity,
		SpaceComplexity:  e.SpaceComplexity,
		KeyInsight:       e.KeyInsight,
		CommonPitfall:    e.CommonPitfall,
		DifficultyRating: e.DifficultyRating,
		Roast:            e.Roast,
		Model:            e.Model,
		CreatedAt:        e.CreatedAt,
	}
	_, err = r.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO explanations (problem_id, approach_tag, core_idea, explanation_steps,
			time_complexity, space_complexity, key_insight, common_pitfall, difficulty_rating, roast, model, created_at)
		 VALUES (:problem_id, :approach_tag, :core_idea, :explanation_steps,
			:time_complexity, :space_complexity, :key_insight, :common_pitfall, :difficulty_rating, :roast, :model, :created_at)`,
		row)
	if err != nil {
		return fmt.Errorf("save explanation for problem %d: %w", e.ProblemID, err)
	}
	return nil
}
