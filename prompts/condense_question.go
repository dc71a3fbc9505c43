package prompts

import (
	"context"
	"strings"

	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/llm"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/memory"
)

// CondenseQuestion rewrites a follow-up utterance into a standalone question
// given the recent chat history. With no history there is nothing to resolve,
// so the follow-up is returned verbatim and the model is not invoked.
func CondenseQuestion(ctx context.Context, client llm.LLMClient, history []memory.Turn, followUp string) <-chan async.Result[string] {
	return async.Go(func() (string, error) {
		if len(history) == 0 {
			return followUp, nil
		}

		userPrompt, err := loadPrompt("templates/condense_question_user.md", map[string]string{
			"CHAT_HISTORY": FormatHistory(history),
			"QUESTION":     followUp,
		})
		if err != nil {
			return "", err
		}

		messages := []llm.Message{
			{
				Role:    "user",
				Content: userPrompt,
			},
		}

		var response strings.Builder
		err = client.GenerateInference(ctx, messages, func(chunk string) error {
			response.WriteString(chunk)
			return nil
		}, llm.WithMaxTokens(256),
			llm.WithTemperature(0),
		)
		if err != nil {
			return "", err
		}

		condensed := strings.TrimSpace(response.String())
		if condensed == "" {
			// A blank rewrite would lose the question entirely.
			return followUp, nil
		}

		return condensed, nil
	})
}

// FormatHistory renders turns as the Human/Assistant transcript block used
// inside prompt templates.
func FormatHistory(history []memory.Turn) string {
	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString("Human: ")
		sb.WriteString(turn.Question)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(turn.Answer)
		sb.WriteString("\n")
	}
	return sb.String()
}
