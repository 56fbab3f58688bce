package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Difficulty labels accepted for problems.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Note types.
const (
	NoteRecall = "RECALL"
	NoteDeep   = "DEEP"
)

// ProblemData is a solved problem as stored.
type ProblemData struct {
	ID            int64   `db:"id" json:"id"`
	Slug          string  `db:"slug" json:"slug"`
	Title         string  `db:"title" json:"title"`
	Difficulty    string  `db:"difficulty" json:"difficulty"`
	ProblemNumber *int64  `db:"problem_number" json:"problem_number,omitempty"`
	Description   *string `db:"description" json:"description,omitempty"`
	Constraints   *string `db:"constraints" json:"constraints,omitempty"`
	Examples      *string `db:"examples" json:"examples,omitempty"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
	UpdatedAt     string  `db:"updated_at" json:"updated_at"`
}

// SolutionData is the latest accepted solution for a problem.
type SolutionData struct {
	ProblemID   int64  `db:"problem_id" json:"problem_id"`
	Code        string `db:"code" json:"code"`
	Language    string `db:"language" json:"language"`
	SubmittedAt string `db:"submitted_at" json:"submitted_at"`
}

// ProblemQuery filters ListProblems.
type ProblemQuery struct {
	Difficulty string // exact match when set
	Search     string // substring of title or slug
	Limit      int    // max results (0 = unlimited)
}

// ProblemRepo manages problems and their solutions.
type ProblemRepo interface {
	// UpsertProblem inserts or updates by slug. It returns the row id and
	// whether the row was newly created. Optional fields left nil keep their
	// stored value on update.
	UpsertProblem(ctx context.Context, p ProblemData) (id int64, created bool, err error)

	GetProblem(ctx context.Context, slug string) (*ProblemData, error)
	GetProblemByID(ctx context.Context, id int64) (*ProblemData, error)

	// ListProblems returns problems newest first.
	ListProblems(ctx context.Context, q ProblemQuery) ([]ProblemData, error)

	// DeleteProblem removes a problem and, by cascade, everything attached.
	DeleteProblem(ctx context.Context, slug string) error

	UpsertSolution(ctx context.Context, s SolutionData) error
	GetSolution(ctx context.Context, problemID int64) (*SolutionData, error)
}

// RevisionData is the persisted schedule state of one problem. Days are
// YYYY-MM-DD strings.
type RevisionData struct {
	ProblemID       int64   `db:"problem_id"`
	RepetitionCount int     `db:"repetition_count"`
	NextReview      string  `db:"next_review"`
	LastReviewed    *string `db:"last_reviewed"`
	TotalReviews    int     `db:"total_reviews"`
	Confidence      *int    `db:"confidence"`
	UpdatedAt       string  `db:"updated_at"`
}

// ReviewEventData records one scheduling decision.
type ReviewEventData struct {
	Sequence     int64  `db:"sequence" json:"sequence"`
	Timestamp    string `db:"timestamp" json:"timestamp"`
	ProblemID    int64  `db:"problem_id" json:"problem_id"`
	Outcome      string `db:"outcome" json:"outcome"` // INIT for the first schedule
	FromCount    int    `db:"from_count" json:"from_count"`
	ToCount      int    `db:"to_count" json:"to_count"`
	RequestedDay string `db:"requested_day" json:"requested_day"`
	ScheduledDay string `db:"scheduled_day" json:"scheduled_day"`
	Shifted      bool   `db:"shifted" json:"shifted"`
	Degraded     bool   `db:"degraded" json:"degraded"`
}

// RevisionTx is the view of the revision table inside one write transaction.
// Every count made through it sees the writes made through it.
type RevisionTx interface {
	CountScheduledOn(ctx context.Context, day string) (int, error)
	GetRevision(ctx context.Context, problemID int64) (*RevisionData, error)
	PutRevision(ctx context.Context, rev RevisionData) error
	ListRevisions(ctx context.Context) ([]RevisionData, error)
	AppendReviewEvent(ctx context.Context, ev ReviewEventData) error
}

// RevisionRepo provides transactional access to schedule state.
type RevisionRepo interface {
	// InTx runs fn in a write transaction. fn's error rolls everything back.
	InTx(ctx context.Context, fn func(tx RevisionTx) error) error

	// ListRevisions returns every revision ordered by next review day.
	ListRevisions(ctx context.Context) ([]RevisionData, error)

	// DayLoads counts revisions per day for from <= day <= to.
	DayLoads(ctx context.Context, from, to string) (map[string]int, error)

	// ListReviewEvents returns the newest events for a problem.
	ListReviewEvents(ctx context.Context, problemID int64, limit int) ([]ReviewEventData, error)
}

// NoteData is a journal entry attached to a problem.
type NoteData struct {
	ID        string `db:"id" json:"id"`
	ProblemID int64  `db:"problem_id" json:"problem_id"`
	Type      string `db:"type" json:"type"`
	Content   string `db:"content" json:"content"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// NoteRepo manages notes.
type NoteRepo interface {
	// CreateNote assigns the id and timestamps and returns the stored note.
	CreateNote(ctx context.Context, n NoteData) (*NoteData, error)
	// ListNotes returns a problem's notes oldest first.
	ListNotes(ctx context.Context, problemID int64) ([]NoteData, error)
	UpdateNote(ctx context.Context, id, content string) (*NoteData, error)
	DeleteNote(ctx context.Context, id string) error
}

// ExplanationData is the one-time AI explanation of a solution.
type ExplanationData struct {
	ProblemID        int64    `json:"problem_id"`
	ApproachTag      string   `json:"approach_tag"`
	CoreIdea         string   `json:"core_idea"`
	ExplanationSteps []string `json:"explanation_steps"`
	TimeComplexity   string   `json:"time_complexity"`
	SpaceComplexity  string   `json:"space_complexity"`
	KeyInsight       string   `json:"key_insight"`
	CommonPitfall    string   `json:"common_pitfall"`
	DifficultyRating string   `json:"difficulty_rating"`
	Roast            string   `json:"roast"`
	Model            string   `json:"model"`
	CreatedAt        string   `json:"created_at"`
}

// ExplanationRepo stores explanations, one per problem.
type ExplanationRepo interface {
	GetExplanation(ctx context.Context, problemID int64) (*ExplanationData, error)
	// SaveExplanation replaces any existing explanation for the problem.
	SaveExplanation(ctx context.Context, e ExplanationData) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestRecord is a stored LLM request event.
type LLMRequestRecord struct {
	ID           int64  `db:"id"`
	Sequence     int64  `db:"sequence"`
	Timestamp    string `db:"timestamp"`
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      bool   `db:"success"`
	ErrorMessage string `db:"error_message"`
	RequestBody  string `db:"request_body"`
	ResponseBody string `db:"response_body"`
}

// LLMUsage aggregates LLM calls for one purpose.
type LLMUsage struct {
	Purpose      string `db:"purpose"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"avg_latency_ms"`
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
}

// EventRepo provides append access to the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	// QueryLLMRequests returns the newest events first.
	QueryLLMRequests(ctx context.Context, limit int) ([]LLMRequestRecord, error)
	// GetLLMRequest returns ErrNotFound for an unknown id.
	GetLLMRequest(ctx context.Context, id int64) (*LLMRequestRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
