package compose

import (
	"context"
	"fmt"
	"log"
	"strings"

	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/retrieval/curate"
	"guest-assistant-be/pkg/retrieval/intent"
)

// Composer renders the final natural-language answer from the curated
// context and a bounded slice of conversation history. Streaming and
// formatting of the rendered text are the transport layer's concern.
type Composer struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewComposer(llmProvider llm.LLMProvider, logger *log.Logger) *Composer {
	return &Composer{llmProvider: llmProvider, logger: logger}
}

// Compose produces the answer text. history must already be bounded by the
// caller (most recent N turns).
func (c *Composer) Compose(ctx context.Context, question string, qi *intent.Intent, curation curate.Output, history []llm.Message) (string, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "user", Content: c.buildSystemPrompt(qi, curation)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})

	answer, err := c.llmProvider.Chat(ctx, messages, llm.WithTemperature(0.6))
	if err != nil {
		c.logger.Printf("[ERROR] Answer composition failed: %v", err)
		return "", err
	}

	return strings.TrimSpace(answer), nil
}

// FallbackAnswer is the degraded rendering used when the model call fails:
// honest about what was found, never fabricated prose.
func FallbackAnswer(curation curate.Output) string {
	if len(curation.TopResults) == 0 {
		return "I could not find relevant information for that question right now. Please try rephrasing it, or ask the property staff directly."
	}

	var sb strings.Builder
	sb.WriteString("I found these sources that may answer your question:\n")
	for _, r := range curation.TopResults {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", r.Result.IdentityKey, r.Result.Domain))
	}
	return sb.String()
}

func (c *Composer) buildSystemPrompt(qi *intent.Intent, curation curate.Output) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a warm, concise assistant for guests of a hospitality property.\n")
	prompt.WriteString("Answer ONLY from the context blocks below. If the context does not contain the answer, say so plainly instead of inventing one.\n")
	prompt.WriteString(fmt.Sprintf("Question intent: %s\n", qi.Type))
	prompt.WriteString("</system>\n\n")

	if len(curation.TopResults) == 0 {
		prompt.WriteString("<context>\nNo relevant content was retrieved for this question.\n</context>\n")
		return prompt.String()
	}

	prompt.WriteString("<context>\n")
	for i, r := range curation.TopResults {
		prompt.WriteString(fmt.Sprintf("[source %d: %s / %s]\n", i+1, r.Result.Domain, r.Result.IdentityKey))
		prompt.WriteString(r.Result.Content)
		prompt.WriteString("\n---\n")
	}
	prompt.WriteString("</context>\n")

	return prompt.String()
}
