package expand

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/retrieval/intent"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func newTestExpander(provider llm.LLMProvider) *Expander {
	return NewExpander(provider, log.New(io.Discard, "", 0))
}

func TestExpandKeepsOriginalFirst(t *testing.T) {
	e := newTestExpander(&fakeLLM{response: `{"strategy": "synonyms", "rewrites": ["rooms with ocean view", "sea facing apartments"]}`})

	mq := e.Expand(context.Background(), "units with sea view", &intent.Intent{Type: intent.TypeFeatureInquiry})

	require.Len(t, mq.Queries, 3)
	assert.Equal(t, "units with sea view", mq.Queries[0])
	assert.Equal(t, "synonyms", mq.Strategy)
}

func TestExpandDeduplicatesCaseInsensitive(t *testing.T) {
	e := newTestExpander(&fakeLLM{response: `{"rewrites": ["Units With Sea View", "ocean view rooms", "  ocean view ROOMS  ", ""]}`})

	mq := e.Expand(context.Background(), "units with sea view", &intent.Intent{Type: intent.TypeFeatureInquiry})

	require.Len(t, mq.Queries, 2)
	assert.Equal(t, "units with sea view", mq.Queries[0])
	assert.Equal(t, "ocean view rooms", mq.Queries[1])
	assert.Equal(t, "paraphrase", mq.Strategy)
}

func TestExpandCapsTotalQueries(t *testing.T) {
	e := newTestExpander(&fakeLLM{response: `{"rewrites": ["a", "b", "c", "d", "e", "f", "g"]}`})

	mq := e.Expand(context.Background(), "original", &intent.Intent{Type: intent.TypeGeneral})

	assert.Len(t, mq.Queries, maxQueries)
	assert.Equal(t, "original", mq.Queries[0])
}

func TestExpandDegradesOnProviderError(t *testing.T) {
	e := newTestExpander(&fakeLLM{err: errors.New("model down")})

	mq := e.Expand(context.Background(), "where is breakfast", &intent.Intent{Type: intent.TypeGeneral})

	assert.Equal(t, []string{"where is breakfast"}, mq.Queries)
	assert.Equal(t, "original_only", mq.Strategy)
}

func TestExpandDegradesOnUnparseableResponse(t *testing.T) {
	for _, response := range []string{"no json here", `{"rewrites": []}`} {
		e := newTestExpander(&fakeLLM{response: response})

		mq := e.Expand(context.Background(), "where is breakfast", &intent.Intent{Type: intent.TypeGeneral})

		assert.Equal(t, []string{"where is breakfast"}, mq.Queries, "response: %s", response)
		assert.Equal(t, "original_only", mq.Strategy)
	}
}
