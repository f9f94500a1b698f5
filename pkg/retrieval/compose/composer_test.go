package compose

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/retrieval/curate"
	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/store"
)

type fakeLLM struct {
	response string
	err      error
	history  []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.history = history
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func testCuration() curate.Output {
	return curate.Output{
		TopResults: []curate.RankedResult{
			{
				Result: store.CandidateResult{
					Domain:      store.DomainAccommodation,
					IdentityKey: "unit-dreamland",
					Content:     "Apartment Dreamland has a sea view and sleeps four.",
				},
				Score:       0.9,
				Reasoning:   "direct match",
				WhyRelevant: "describes the requested unit",
			},
		},
		RejectedResults: []curate.RejectedResult{},
	}
}

func TestComposeBuildsContextAndHistory(t *testing.T) {
	provider := &fakeLLM{response: "  Apartment Dreamland sleeps four and has a sea view.  "}
	c := NewComposer(provider, log.New(io.Discard, "", 0))

	history := []llm.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello!"},
	}
	answer, err := c.Compose(context.Background(), "tell me about Dreamland",
		&intent.Intent{Type: intent.TypeSpecificUnit}, testCuration(), history)

	require.NoError(t, err)
	assert.Equal(t, "Apartment Dreamland sleeps four and has a sea view.", answer)

	// system prompt + 2 history turns + question
	require.Len(t, provider.history, 4)
	assert.Contains(t, provider.history[0].Content, "unit-dreamland")
	assert.Contains(t, provider.history[0].Content, intent.TypeSpecificUnit)
	assert.Equal(t, "tell me about Dreamland", provider.history[3].Content)
}

func TestComposeReturnsProviderError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model down")}
	c := NewComposer(provider, log.New(io.Discard, "", 0))

	_, err := c.Compose(context.Background(), "q", &intent.Intent{Type: intent.TypeGeneral}, testCuration(), nil)
	assert.Error(t, err)
}

func TestFallbackAnswer(t *testing.T) {
	answer := FallbackAnswer(testCuration())
	assert.Contains(t, answer, "unit-dreamland")

	empty := FallbackAnswer(curate.Output{})
	assert.Contains(t, empty, "could not find")
}
