package curate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/retrieval/jsonx"
	"guest-assistant-be/pkg/store"
)

// contentPreviewRunes is how much of each candidate the curator model sees.
const contentPreviewRunes = 280

// RankedResult is one curated candidate with its mandatory justification.
type RankedResult struct {
	Result      store.CandidateResult `json:"result"`
	Score       float64               `json:"score"`
	Reasoning   string                `json:"reasoning"`
	WhyRelevant string                `json:"why_relevant"`
}

// RejectedResult names a discarded candidate and why.
type RejectedResult struct {
	Name      string `json:"name"`
	Reasoning string `json:"reasoning"`
}

// Output is the curated, explainable result set.
// Invariants: len(TopResults) never exceeds the caller's budget, and every
// retained result carries non-empty Reasoning and WhyRelevant strings.
// Degraded marks the similarity-order fallback used when the reasoning model
// was unavailable.
type Output struct {
	TopResults      []RankedResult   `json:"top_results"`
	RejectedResults []RejectedResult `json:"rejected_results"`
	Degraded        bool             `json:"degraded,omitempty"`
}

// Curator performs semantic reranking with one LLM call. Unlike vector
// similarity, it can reject a high-similarity candidate for being the wrong
// category and keep a lower one that matches the intent's entities.
type Curator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewCurator(llmProvider llm.LLMProvider, logger *log.Logger) *Curator {
	return &Curator{llmProvider: llmProvider, logger: logger}
}

// Curate selects a justified top-K from the candidates. An empty candidate
// set short-circuits to an empty, well-formed output without touching the
// model.
func (c *Curator) Curate(ctx context.Context, question string, qi *intent.Intent, candidates []store.CandidateResult, maxContextChunks int) Output {
	if len(candidates) == 0 {
		return Output{TopResults: []RankedResult{}, RejectedResults: []RejectedResult{}}
	}
	if maxContextChunks < 1 {
		maxContextChunks = 1
	}

	prompt := c.buildPrompt(question, qi, candidates, maxContextChunks)

	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[ERROR] Curation call failed: %v", err)
		return fallbackBySimilarity(candidates, maxContextChunks)
	}

	out, err := parseCuration(response, candidates, maxContextChunks)
	if err != nil {
		c.logger.Printf("[WARN] Curation parsing failed, falling back to similarity order: %v", err)
		return fallbackBySimilarity(candidates, maxContextChunks)
	}

	c.logger.Printf("[CURATE] kept %d, rejected %d of %d candidates", len(out.TopResults), len(out.RejectedResults), len(candidates))

	return out
}

func (c *Curator) buildPrompt(question string, qi *intent.Intent, candidates []store.CandidateResult, maxContextChunks int) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You curate search results for a hospitality assistant. Select the candidates that actually answer the guest's question and justify every decision.\n")
	prompt.WriteString("Vector similarity is only a hint: reject off-topic candidates no matter their score, keep lower-scored ones that match the intent.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<guest_question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</guest_question>\n\n")

	prompt.WriteString("<intent>\n")
	prompt.WriteString(fmt.Sprintf("type: %s\n", qi.Type))
	if len(qi.ExpectedEntities) > 0 {
		prompt.WriteString(fmt.Sprintf("expected: %s\n", strings.Join(qi.ExpectedEntities, ", ")))
	}
	if len(qi.AvoidEntities) > 0 {
		prompt.WriteString(fmt.Sprintf("avoid: %s\n", strings.Join(qi.AvoidEntities, ", ")))
	}
	prompt.WriteString("</intent>\n\n")

	prompt.WriteString("<candidates>\n")
	for i, cand := range candidates {
		prompt.WriteString(fmt.Sprintf("[%d] domain=%s identity=%q similarity=%.4f\n", i, cand.Domain, cand.IdentityKey, cand.Similarity))
		prompt.WriteString(truncateRunes(cand.Content, contentPreviewRunes))
		prompt.WriteString("\n---\n")
	}
	prompt.WriteString("</candidates>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString(fmt.Sprintf("Select AT MOST %d candidates. Respond with ONLY valid JSON:\n", maxContextChunks))
	prompt.WriteString("{\n")
	prompt.WriteString("  \"selected\": [{\"index\": 0, \"score\": 0.9, \"reasoning\": \"why this ranks here\", \"why_relevant\": \"what it contributes to the answer\"}],\n")
	prompt.WriteString("  \"rejected\": [{\"name\": \"candidate identity\", \"reasoning\": \"one line\"}]\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseCuration(response string, candidates []store.CandidateResult, maxContextChunks int) (Output, error) {
	jsonContent := jsonx.ExtractObject(response)
	if jsonContent == "" {
		return Output{}, fmt.Errorf("no JSON found in response")
	}

	var parsed struct {
		Selected []struct {
			Index       int     `json:"index"`
			Score       float64 `json:"score"`
			Reasoning   string  `json:"reasoning"`
			WhyRelevant string  `json:"why_relevant"`
		} `json:"selected"`
		Rejected []struct {
			Name      string `json:"name"`
			Reasoning string `json:"reasoning"`
		} `json:"rejected"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return Output{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	out := Output{TopResults: []RankedResult{}, RejectedResults: []RejectedResult{}}
	seen := make(map[int]bool)

	for _, sel := range parsed.Selected {
		if sel.Index < 0 || sel.Index >= len(candidates) || seen[sel.Index] {
			continue
		}
		seen[sel.Index] = true

		// Explainability is mandatory: backfill one justification from the
		// other, drop the entry when the model provided neither.
		reasoning := strings.TrimSpace(sel.Reasoning)
		why := strings.TrimSpace(sel.WhyRelevant)
		if reasoning == "" {
			reasoning = why
		}
		if why == "" {
			why = reasoning
		}
		if reasoning == "" {
			continue
		}

		out.TopResults = append(out.TopResults, RankedResult{
			Result:      candidates[sel.Index],
			Score:       sel.Score,
			Reasoning:   reasoning,
			WhyRelevant: why,
		})
		if len(out.TopResults) == maxContextChunks {
			break
		}
	}

	// An empty selection in well-formed JSON is a legitimate verdict: the
	// model may reject every candidate. Only a non-empty selection that
	// yields nothing usable is treated as malformed output.
	if len(parsed.Selected) > 0 && len(out.TopResults) == 0 {
		return Output{}, fmt.Errorf("model selected nothing usable")
	}

	for _, rej := range parsed.Rejected {
		if strings.TrimSpace(rej.Name) == "" {
			continue
		}
		out.RejectedResults = append(out.RejectedResults, RejectedResult{
			Name:      rej.Name,
			Reasoning: rej.Reasoning,
		})
	}

	return out, nil
}

// fallbackBySimilarity is the degraded path for curation failures: raw
// similarity order with a fixed justification, flagged so the caller can
// surface the degradation honestly.
func fallbackBySimilarity(candidates []store.CandidateResult, maxContextChunks int) Output {
	sorted := make([]store.CandidateResult, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Similarity != sorted[j].Similarity {
			return sorted[i].Similarity > sorted[j].Similarity
		}
		return sorted[i].IdentityKey < sorted[j].IdentityKey
	})

	if len(sorted) > maxContextChunks {
		sorted = sorted[:maxContextChunks]
	}

	out := Output{
		TopResults:      make([]RankedResult, 0, len(sorted)),
		RejectedResults: []RejectedResult{},
		Degraded:        true,
	}
	for _, cand := range sorted {
		out.TopResults = append(out.TopResults, RankedResult{
			Result:      cand,
			Score:       cand.Similarity,
			Reasoning:   "Curation unavailable; ranked by vector similarity",
			WhyRelevant: "Highest similarity to the question among retrieved candidates",
		})
	}
	return out
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
