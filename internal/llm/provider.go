// Package llm talks to hosted language models. Callers build a Request,
// optionally with a JSON Schema, and get back validated JSON.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one completion per call.
type Provider interface {
	// Generate sends req and returns the model's output. When req.Schema is
	// set the output has already been checked against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model this provider sends requests to.
	ModelID() string
}

// Request is a single generation request.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, asks the provider for structured JSON output and
	// makes Generate validate the result.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is one turn of the prompt.
type Message struct {
	Role    Role
	Content string
}

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema document.
type Schema struct {
	// Name is a kebab-case identifier. Compiled schemas are cached by it.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a model's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage counts tokens for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds the common single-message request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}
