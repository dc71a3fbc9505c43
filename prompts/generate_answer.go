package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/llm"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/memory"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/retriever"
)

// GenerateAnswer produces the final answer from the standalone question, the
// retrieved passages and the recent history. The returned text has newlines
// stripped and surrounding whitespace trimmed.
func GenerateAnswer(ctx context.Context, client llm.LLMClient, question string, snippets []retriever.Snippet, history []memory.Turn, contextLimit int) <-chan async.Result[string] {
	return async.Go(func() (string, error) {
		systemPrompt, err := loadPrompt("templates/generate_answer_system.md", map[string]string{})
		if err != nil {
			return "", err
		}

		userPrompt, err := loadPrompt("templates/generate_answer_user.md", map[string]string{
			"CONTEXT":      buildContext(snippets, contextLimit),
			"CHAT_HISTORY": FormatHistory(history),
			"QUESTION":     question,
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
		}, llm.WithMaxTokens(1024),
			llm.WithTemperature(0.5),
			llm.WithSystemPrompt(systemPrompt),
		)
		if err != nil {
			return "", err
		}

		return cleanAnswer(response.String()), nil
	})
}

// buildContext lays retrieved passages out as a numbered block, bounded by
// the configured model context length. With no passages the block says so
// explicitly and generation proceeds on history alone.
func buildContext(snippets []retriever.Snippet, limit int) string {
	if len(snippets) == 0 {
		return "(no relevant passages found)"
	}

	var sb strings.Builder
	for _, s := range snippets {
		entry := fmt.Sprintf("[%d] %s (source: %s)\n", s.Rank, s.Excerpt, s.Source)
		if limit > 0 && sb.Len()+len(entry) > limit {
			break
		}
		sb.WriteString(entry)
	}

	if sb.Len() == 0 {
		// The first passage alone exceeded the limit; keep a truncated cut
		// rather than sending an empty context block.
		runes := []rune(snippets[0].Excerpt)
		if limit > 0 && len(runes) > limit {
			runes = runes[:limit]
		}
		return string(runes)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func cleanAnswer(answer string) string {
	return strings.TrimSpace(strings.ReplaceAll(answer, "\n", ""))
}
