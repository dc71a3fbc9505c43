package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaClient serves the same interface from a locally running Ollama
// daemon. It exists so the backend can be exercised without AWS credentials.
type OllamaClient struct {
	client *api.Client
	model  string
}

func NewOllamaClient(client *api.Client, model string) *OllamaClient {
	return &OllamaClient{
		client: client,
		model:  model,
	}
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	chatMessages := make([]api.Message, 0, len(messages)+1)
	if settings.system != "" {
		chatMessages = append(chatMessages, api.Message{Role: "system", Content: settings.system})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	request := &api.ChatRequest{
		Model:    c.model,
		Messages: chatMessages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": settings.temperature,
			"num_predict": settings.maxTokens,
		},
	}

	var response strings.Builder
	err := c.client.Chat(ctx, request, func(resp api.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: ollama chat %s: %v", ErrGenerationUnavailable, c.model, err)
	}

	return callback(response.String())
}
