package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
)

type sagemakerAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// SageMakerClient invokes a text-generation-inference endpoint (Falcon
// 40B Instruct in the workshop deployment) hosted on SageMaker.
type SageMakerClient struct {
	client   sagemakerAPI
	endpoint string
}

func NewSageMakerClient(client sagemakerAPI, endpoint string) *SageMakerClient {
	return &SageMakerClient{
		client:   client,
		endpoint: endpoint,
	}
}

func (c *SageMakerClient) GetModel() string {
	return c.endpoint
}

func (c *SageMakerClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	request := sagemakerRequest{
		Inputs: flattenMessages(settings.system, messages),
		Parameters: sagemakerParameters{
			DoSample:          false,
			RepetitionPenalty: 1.1,
			ReturnFullText:    false,
			MaxNewTokens:      settings.maxTokens,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	out, err := c.client.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(c.endpoint),
		ContentType:  aws.String("application/json"),
		Accept:       aws.String("application/json"),
		Body:         jsonData,
	})
	if err != nil {
		return fmt.Errorf("%w: sagemaker invoke %s: %v", ErrGenerationUnavailable, c.endpoint, err)
	}

	var response []sagemakerGeneration
	if err := json.Unmarshal(out.Body, &response); err != nil {
		return fmt.Errorf("%w: sagemaker response decode: %v", ErrGenerationUnavailable, err)
	}

	if len(response) == 0 {
		return fmt.Errorf("%w: sagemaker returned no generations", ErrGenerationUnavailable)
	}

	return callback(response[0].GeneratedText)
}

// flattenMessages joins chat messages into the single inputs string the
// instruct endpoint expects.
func flattenMessages(system string, messages []Message) string {
	parts := make([]string, 0, len(messages)+1)
	if system != "" {
		parts = append(parts, system)
	}
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

type sagemakerRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters sagemakerParameters `json:"parameters"`
}

type sagemakerParameters struct {
	DoSample          bool    `json:"do_sample"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	ReturnFullText    bool    `json:"return_full_text"`
	MaxNewTokens      int     `json:"max_new_tokens"`
}

type sagemakerGeneration struct {
	GeneratedText string `json:"generated_text"`
}
