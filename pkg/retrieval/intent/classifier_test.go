package intent

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-assistant-be/pkg/llm"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestClassifyParsesValidResponse(t *testing.T) {
	provider := &fakeLLM{response: `{
		"type": "specific_unit",
		"confidence": 0.92,
		"reasoning": "Asks about the wifi of one unit",
		"expected_entities": ["wifi", "password"],
		"avoid_entities": ["beach"],
		"metadata_filters": {"unit_type": ["apartment"]}
	}`}

	c := NewClassifier(provider, 0.4, discardLogger())
	qi := c.Classify(context.Background(), "what is the wifi password in apartment Dreamland?")

	require.NotNil(t, qi)
	assert.Equal(t, TypeSpecificUnit, qi.Type)
	assert.InDelta(t, 0.92, qi.Confidence, 0.001)
	assert.Equal(t, []string{"wifi", "password"}, qi.ExpectedEntities)
	assert.Equal(t, []string{"beach"}, qi.AvoidEntities)
	assert.Equal(t, []string{"apartment"}, qi.MetadataFilters["unit_type"])
	assert.Equal(t, 1, provider.calls)
}

func TestClassifyExtractsJSONFromProse(t *testing.T) {
	provider := &fakeLLM{response: "Sure! Here is the classification:\n```json\n" +
		`{"type": "tourism", "confidence": 0.8, "reasoning": "about beaches"}` +
		"\n```\nLet me know if you need anything else."}

	c := NewClassifier(provider, 0.4, discardLogger())
	qi := c.Classify(context.Background(), "best beaches nearby?")

	assert.Equal(t, TypeTourism, qi.Type)
	assert.InDelta(t, 0.8, qi.Confidence, 0.001)
}

func TestClassifyDegradesLowConfidenceToGeneral(t *testing.T) {
	provider := &fakeLLM{response: `{"type": "pricing_inquiry", "confidence": 0.2, "reasoning": "unsure"}`}

	c := NewClassifier(provider, 0.4, discardLogger())
	qi := c.Classify(context.Background(), "hmm maybe something about money?")

	assert.Equal(t, TypeGeneral, qi.Type)
	assert.InDelta(t, 0.2, qi.Confidence, 0.001)
}

func TestClassifyFallsBackOnProviderError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model unavailable")}

	c := NewClassifier(provider, 0.4, discardLogger())
	qi := c.Classify(context.Background(), "show me all rooms")

	require.NotNil(t, qi)
	assert.Equal(t, TypeGeneral, qi.Type)
	assert.Zero(t, qi.Confidence)
	assert.NotNil(t, qi.MetadataFilters)
}

func TestClassifyFallsBackOnGarbage(t *testing.T) {
	for _, response := range []string{
		"I think the guest wants rooms.",
		`{"type": "unknown_kind", "confidence": 0.9}`,
		`{"type": 42}`,
	} {
		provider := &fakeLLM{response: response}
		c := NewClassifier(provider, 0.4, discardLogger())

		qi := c.Classify(context.Background(), "show me all rooms")
		assert.Equal(t, TypeGeneral, qi.Type, "response: %s", response)
		assert.Zero(t, qi.Confidence, "response: %s", response)
	}
}

func TestClassifyClampsConfidence(t *testing.T) {
	provider := &fakeLLM{response: `{"type": "tourism", "confidence": 3.5, "reasoning": "x"}`}

	c := NewClassifier(provider, 0.4, discardLogger())
	qi := c.Classify(context.Background(), "diving tours?")

	assert.Equal(t, 1.0, qi.Confidence)
}
