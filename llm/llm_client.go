package llm

import (
	"context"
	"errors"
)

// ErrGenerationUnavailable marks any failure to reach or use a model
// endpoint. Callers match it with errors.Is.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// LLMClient is the capability interface over a managed model endpoint. The
// backend (Bedrock, SageMaker, Ollama) is fixed at construction; request
// handling never builds clients.
type LLMClient interface {
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

type LLMSettings struct {
	temperature float64 // randomness (0.0 to 1.0)
	maxTokens   int     // maximum tokens to generate
	system      string  // system prompt
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // the message content
}

func defaultSettings() LLMSettings {
	return LLMSettings{
		temperature: 0.7,
		maxTokens:   1024,
	}
}
