package explain

import (
	"errors"
	"time"
)

var (
	// ErrDisabled is returned when no LLM provider is configured.
	ErrDisabled = errors.New("ai explanations are disabled")

	// ErrNoSolution is returned for a problem without a stored solution.
	ErrNoSolution = errors.New("no solution stored for problem")
)

// Input is what the model sees.
type Input struct {
	Title      string
	Difficulty string
	Language   string
	Code       string
}

// Config tunes generation.
type Config struct {
	MaxTokens   int
	Temperature float64

	// Timeout bounds one explanation generation, retries included.
	Timeout time.Duration
}

// DefaultConfig keeps temperature low so explanations stay literal.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2048,
		Temperature: 0.2,
		Timeout:     60 * time.Second,
	}
}

type explanationOutput struct {
	ApproachTag      string   `json:"approach_tag"`
	CoreIdea         string   `json:"core_idea"`
	ExplanationSteps []string `json:"explanation_steps"`
	Complexity       struct {
		Time  string `json:"time"`
		Space string `json:"space"`
	} `json:"complexity"`
	KeyInsight       string `json:"key_insight"`
	CommonPitfall    string `json:"common_pitfall"`
	DifficultyRating string `json:"difficulty_rating"`
	Roast            string `json:"roast"`
}
