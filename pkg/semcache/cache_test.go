package semcache

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache() *Cache {
	return New(nil, DefaultGroups(), time.Minute, log.New(io.Discard, "", 0))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"What is the WiFi password?":    "what is the wifi password",
		"  what IS   the wifi password": "what is the wifi password",
		"¿Cuál es la clave del WiFi?":   "cuál es la clave del wifi",
		"check-in time!!!":              "checkin time",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input: %q", in)
	}
}

func TestKeyGroupsParaphrases(t *testing.T) {
	c := newTestCache()

	paraphrases := []string{
		"What is the wifi password?",
		"Could you tell me the WIFI password please",
		"cual es la clave del wifi",
	}

	first := c.Key(paraphrases[0])
	assert.Equal(t, "sem:wifi_access", first)
	for _, q := range paraphrases[1:] {
		assert.Equal(t, first, c.Key(q), "question: %q", q)
	}
}

func TestKeyExactHashForUngroupedQuestions(t *testing.T) {
	c := newTestCache()

	k1 := c.Key("do you allow pets in apartment Dreamland?")
	k2 := c.Key("how far is the airport?")

	assert.Contains(t, k1, "exact:")
	assert.NotEqual(t, k1, k2)

	// Same question with trivial differences hashes the same.
	assert.Equal(t, k1, c.Key("  Do you allow PETS in apartment dreamland??  "))
}

func TestLookupAndStoreRoundtrip(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	_, found := c.Lookup(ctx, "is breakfast included?")
	assert.False(t, found)

	c.Store(ctx, "is breakfast included?", []byte(`{"answer": "yes"}`))

	payload, found := c.Lookup(ctx, "is breakfast included?")
	require.True(t, found)
	assert.JSONEq(t, `{"answer": "yes"}`, string(payload))

	// A grouped paraphrase hits the same entry.
	payload, found = c.Lookup(ctx, "Is the breakfast included in the rate?")
	require.True(t, found)
	assert.JSONEq(t, `{"answer": "yes"}`, string(payload))
}

func TestLookupMissForDifferentQuestion(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	c.Store(ctx, "is breakfast included?", []byte("x"))

	_, found := c.Lookup(ctx, "where can I rent a bike?")
	assert.False(t, found)
}
