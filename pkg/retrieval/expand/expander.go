package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/retrieval/jsonx"
)

// maxQueries bounds the whole set, original included.
const maxQueries = 5

// MultiQuery is an ordered set of semantically distinct rewrites of one
// question. The original question is always element 0, so recall never drops
// below the single-query baseline even when rewrites are poor. Order is
// insertion order, preserved for deterministic logging and tests.
type MultiQuery struct {
	Queries  []string
	Strategy string
}

// Expander produces paraphrase rewrites with one LLM call.
type Expander struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewExpander(llmProvider llm.LLMProvider, logger *log.Logger) *Expander {
	return &Expander{llmProvider: llmProvider, logger: logger}
}

// Expand rewrites the question into 2-4 recall-oriented variants. Failures
// degrade to the original question alone.
func (e *Expander) Expand(ctx context.Context, question string, qi *intent.Intent) MultiQuery {
	prompt := e.buildPrompt(question, qi)

	response, err := e.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		e.logger.Printf("[WARN] Query expansion failed: %v", err)
		return MultiQuery{Queries: []string{question}, Strategy: "original_only"}
	}

	rewrites, strategy, err := parseRewrites(response)
	if err != nil {
		e.logger.Printf("[WARN] Query expansion parsing failed: %v", err)
		return MultiQuery{Queries: []string{question}, Strategy: "original_only"}
	}

	queries := []string{question}
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(question)): true}
	for _, rw := range rewrites {
		rw = strings.TrimSpace(rw)
		key := strings.ToLower(rw)
		if rw == "" || seen[key] {
			continue
		}
		queries = append(queries, rw)
		seen[key] = true
		if len(queries) == maxQueries {
			break
		}
	}

	e.logger.Printf("[EXPAND] %d queries (strategy: %s)", len(queries), strategy)

	return MultiQuery{Queries: queries, Strategy: strategy}
}

func (e *Expander) buildPrompt(question string, qi *intent.Intent) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You rewrite guest questions to improve vector search recall for a hospitality assistant.\n")
	prompt.WriteString("Produce 2-4 rewrites that keep the SAME meaning but use different vocabulary.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<guidance>\n")
	prompt.WriteString(fmt.Sprintf("Question intent: %s\n", qi.Type))
	if len(qi.ExpectedEntities) > 0 {
		prompt.WriteString(fmt.Sprintf("Bias rewrites TOWARD this vocabulary: %s\n", strings.Join(qi.ExpectedEntities, ", ")))
	}
	if len(qi.AvoidEntities) > 0 {
		prompt.WriteString(fmt.Sprintf("Do NOT drift toward: %s\n", strings.Join(qi.AvoidEntities, ", ")))
	}
	prompt.WriteString("</guidance>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"strategy\": \"short label for the rewrite approach\", \"rewrites\": [\"...\", \"...\"]}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseRewrites(response string) ([]string, string, error) {
	jsonContent := jsonx.ExtractObject(response)
	if jsonContent == "" {
		return nil, "", fmt.Errorf("no JSON found in response")
	}

	var parsed struct {
		Strategy string   `json:"strategy"`
		Rewrites []string `json:"rewrites"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return nil, "", fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	if len(parsed.Rewrites) == 0 {
		return nil, "", fmt.Errorf("no rewrites in response")
	}
	if parsed.Strategy == "" {
		parsed.Strategy = "paraphrase"
	}

	return parsed.Rewrites, parsed.Strategy, nil
}
