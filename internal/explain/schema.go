package explain

import "github.com/lchelper/lchelper/internal/llm"

// ExplanationSchema is the structured output every provider must return.
// roast is required so strict providers accept the schema; an empty string
// means the model had nothing to say.
var ExplanationSchema = &llm.Schema{
	Name:        "solution-explanation",
	Description: "Explanation of a user's algorithm solution",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"approach_tag": map[string]any{
				"type":        "string",
				"description": "Standard algorithm name (e.g., Binary Search, Two Pointers)",
			},
			"core_idea": map[string]any{
				"type":        "string",
				"description": "Exactly one sentence summarizing the core logic",
			},
			"explanation_steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Steps tied to concrete variables or control flow in the code",
			},
			"complexity": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"time":  map[string]any{"type": "string", "description": "Big-O time complexity"},
					"space": map[string]any{"type": "string", "description": "Big-O space complexity"},
				},
				"required":             []any{"time", "space"},
				"additionalProperties": false,
			},
			"key_insight": map[string]any{
				"type":        "string",
				"description": "The invariant or observation that makes this solution work",
			},
			"common_pitfall": map[string]any{
				"type":        "string",
				"description": "A specific mistake someone might make implementing this approach",
			},
			"difficulty_rating": map[string]any{
				"type": "string",
				"enum": []any{"Easy", "Medium", "Hard"},
			},
			"roast": map[string]any{
				"type":        "string",
				"description": "Playful critique referencing an actual code choice, or an empty string",
			},
		},
		"required": []any{
			"approach_tag", "core_idea", "explanation_steps", "complexity",
			"key_insight", "common_pitfall", "difficulty_rating", "roast",
		},
		"additionalProperties": false,
	},
}
