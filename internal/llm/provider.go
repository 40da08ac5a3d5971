package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for LLM interaction. The app uses it
// two ways: free-form conversational turns (no schema, the response is
// raw text carrying the QUESTION/CHOICES/[TRANSLATION] markers) and
// structured generation (quiz sets, image labels) where a Schema forces
// validated JSON output.
type Provider interface {
	// Generate sends the conversation to the LLM and returns its reply.
	// The request's Schema field, when set, instructs the provider to
	// return JSON conforming to that schema; the response Content is
	// then the validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history, oldest first. The app
	// replays the full transcript on every turn; providers are
	// stateless.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism.
	// When nil, the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation. A user
// message may carry an image (the theme photo) alongside its text.
type Message struct {
	Role    Role
	Content string

	// Image is optional raw image bytes attached to the message.
	Image []byte

	// ImageMIME is the image content type, e.g. "image/jpeg".
	// Defaults to image/jpeg when Image is set and this is empty.
	ImageMIME string
}

// mime returns the image content type with the jpeg default applied.
func (m Message) mime() string {
	if m.ImageMIME != "" {
		return m.ImageMIME
	}
	return "image/jpeg"
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as tool name for Anthropic,
	// schema name for OpenAI). Kebab-case, e.g. "quiz-set".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the validated JSON object. When no Schema was
	// provided, this is the raw text response.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Text returns the response content as plain text.
func (r *Response) Text() string {
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
