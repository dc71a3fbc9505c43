package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient invokes an Anthropic Claude v2 model through Amazon Bedrock
// using the text-completion body format.
type BedrockClient struct {
	client bedrockAPI
	model  string
}

func NewBedrockClient(client bedrockAPI, model string) *BedrockClient {
	return &BedrockClient{
		client: client,
		model:  model,
	}
}

func (c *BedrockClient) GetModel() string {
	return c.model
}

func (c *BedrockClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	request := claudeRequest{
		Prompt:            claudePrompt(settings.system, messages),
		MaxTokensToSample: settings.maxTokens,
		Temperature:       settings.temperature,
		StopSequences:     []string{"\n\nHuman:"},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        jsonData,
	})
	if err != nil {
		return fmt.Errorf("%w: bedrock invoke %s: %v", ErrGenerationUnavailable, c.model, err)
	}

	var response claudeResponse
	if err := json.Unmarshal(out.Body, &response); err != nil {
		return fmt.Errorf("%w: bedrock response decode: %v", ErrGenerationUnavailable, err)
	}

	return callback(response.Completion)
}

// claudePrompt flattens chat messages into the Claude v2 Human/Assistant
// transcript. The model has no system parameter; a system prompt becomes the
// preamble before the first turn.
func claudePrompt(system string, messages []Message) string {
	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
	}

	for _, m := range messages {
		if m.Role == "assistant" {
			sb.WriteString("\n\nAssistant: ")
		} else {
			sb.WriteString("\n\nHuman: ")
		}
		sb.WriteString(m.Content)
	}

	sb.WriteString("\n\nAssistant:")
	return sb.String()
}

type claudeRequest struct {
	Prompt            string   `json:"prompt"`
	MaxTokensToSample int      `json:"max_tokens_to_sample"`
	Temperature       float64  `json:"temperature"`
	StopSequences     []string `json:"stop_sequences,omitempty"`
}

type claudeResponse struct {
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
}
