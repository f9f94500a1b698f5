package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/retrieval/jsonx"
)

// Intent type constants
const (
	TypeInventoryComplete = "inventory_complete"
	TypeSpecificUnit      = "specific_unit"
	TypeFeatureInquiry    = "feature_inquiry"
	TypePricingInquiry    = "pricing_inquiry"
	TypeTourism           = "tourism"
	TypeGeneral           = "general"
)

// Intent is the resolved, immutable classification of one question.
// It drives every downstream retrieval decision.
type Intent struct {
	Type             string              `json:"type"`
	Confidence       float64             `json:"confidence"`
	Reasoning        string              `json:"reasoning"`
	ExpectedEntities []string            `json:"expected_entities"`
	AvoidEntities    []string            `json:"avoid_entities"`
	MetadataFilters  map[string][]string `json:"metadata_filters"`
}

var validTypes = map[string]bool{
	TypeInventoryComplete: true,
	TypeSpecificUnit:      true,
	TypeFeatureInquiry:    true,
	TypePricingInquiry:    true,
	TypeTourism:           true,
	TypeGeneral:           true,
}

// Classifier performs pure LLM-based intent classification.
// This is Phase 1 - no retrieval, just understanding.
type Classifier struct {
	llmProvider   llm.LLMProvider
	minConfidence float64
	logger        *log.Logger
}

// NewClassifier creates a new intent classifier. Intents whose confidence
// falls below minConfidence are degraded to the general type instead of
// being trusted.
func NewClassifier(llmProvider llm.LLMProvider, minConfidence float64, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider:   llmProvider,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Classify analyzes the question and produces an intent. It never returns an
// error: classification or parsing failures fall back to a safe low-confidence
// general intent so the rest of the pipeline proceeds.
func (c *Classifier) Classify(ctx context.Context, question string) *Intent {
	prompt := c.buildPrompt(question)

	// Temperature 0 for deterministic output shape
	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[ERROR] Intent classification failed: %v", err)
		return fallbackIntent()
	}

	intent, err := parseIntent(response)
	if err != nil {
		c.logger.Printf("[WARN] Intent parsing failed, using fallback: %v", err)
		return fallbackIntent()
	}

	if intent.Confidence < c.minConfidence && intent.Type != TypeGeneral {
		c.logger.Printf("[INTENT] Confidence %.2f below floor %.2f, degrading %s to general",
			intent.Confidence, c.minConfidence, intent.Type)
		intent.Type = TypeGeneral
	}

	c.logger.Printf("[INTENT] Resolved: %s (Confidence: %.2f, Entities: %v)",
		intent.Type, intent.Confidence, intent.ExpectedEntities)

	return intent
}

func (c *Classifier) buildPrompt(question string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an intent analyzer for a hospitality assistant. Your ONLY job is to classify what the guest is asking about.\n")
	prompt.WriteString("You do NOT answer questions. You only classify intent.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<guest_question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</guest_question>\n\n")

	prompt.WriteString("<intent_definitions>\n")
	prompt.WriteString("Choose ONE intent that best matches the question:\n\n")

	prompt.WriteString("inventory_complete: Guest wants to see ALL available units\n")
	prompt.WriteString("  - 'show me all the rooms', 'what apartments do you have', 'full list of accommodations'\n\n")

	prompt.WriteString("specific_unit: Question about ONE specific unit or its operational details\n")
	prompt.WriteString("  - 'what is the wifi password', 'how does the AC work in room 5', 'where is apartment Dreamland'\n\n")

	prompt.WriteString("feature_inquiry: Guest filters units by features or amenities\n")
	prompt.WriteString("  - 'rooms with sea view', 'units with a kitchen', 'do any apartments have a balcony'\n\n")

	prompt.WriteString("pricing_inquiry: Question about rates, prices or payment\n")
	prompt.WriteString("  - 'how much per night', 'price for two people in December'\n\n")

	prompt.WriteString("tourism: Question about the destination, not the property\n")
	prompt.WriteString("  - 'best beaches nearby', 'where to eat local food', 'diving tours', 'nightlife'\n\n")

	prompt.WriteString("general: Greetings, small talk, or anything that fits none of the above\n")
	prompt.WriteString("</intent_definitions>\n\n")

	prompt.WriteString("<entity_extraction>\n")
	prompt.WriteString("expected_entities: nouns the answer should mention (unit names, amenities, places, activities).\n")
	prompt.WriteString("avoid_entities: terms that would indicate a WRONG match (e.g. question about a beach should avoid unit manuals).\n")
	prompt.WriteString("metadata_filters: optional allow-lists over candidate metadata, e.g. {\"category\": [\"restaurant\", \"beach\"]}. Only include when the question clearly names a category.\n")
	prompt.WriteString("</entity_extraction>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"type\": \"inventory_complete|specific_unit|feature_inquiry|pricing_inquiry|tourism|general\",\n")
	prompt.WriteString("  \"confidence\": 0.95,\n")
	prompt.WriteString("  \"reasoning\": \"Brief explanation\",\n")
	prompt.WriteString("  \"expected_entities\": [\"wifi\", \"password\"],\n")
	prompt.WriteString("  \"avoid_entities\": [],\n")
	prompt.WriteString("  \"metadata_filters\": {}\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parseIntent(response string) (*Intent, error) {
	jsonContent := jsonx.ExtractObject(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var intent Intent
	if err := json.Unmarshal([]byte(jsonContent), &intent); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	// Validate and normalize
	intent.Type = strings.ToLower(strings.TrimSpace(intent.Type))
	if !validTypes[intent.Type] {
		return nil, fmt.Errorf("unknown intent type %q", intent.Type)
	}
	if intent.Confidence < 0 {
		intent.Confidence = 0
	}
	if intent.Confidence > 1 {
		intent.Confidence = 1
	}
	if intent.MetadataFilters == nil {
		intent.MetadataFilters = map[string][]string{}
	}

	return &intent, nil
}

func fallbackIntent() *Intent {
	return &Intent{
		Type:            TypeGeneral,
		Confidence:      0,
		Reasoning:       "Fallback: classification unavailable, defaulting to general",
		MetadataFilters: map[string][]string{},
	}
}
