package search

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-assistant-be/pkg/embedding"
	"guest-assistant-be/pkg/retrieval/expand"
	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/retrieval/plan"
	"guest-assistant-be/pkg/store"
)

type fakeEmbedder struct {
	mu   sync.Mutex
	dims []int
	err  error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string, dimensions int) (*embedding.Result, error) {
	f.mu.Lock()
	f.dims = append(f.dims, dimensions)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.Result{Values: make([]float32, dimensions)}, nil
}

type fakeGateway struct {
	mu         sync.Mutex
	byDomain   map[store.Domain][]store.CandidateResult
	errDomains map[store.Domain]error
	calls      int
}

func (f *fakeGateway) Search(ctx context.Context, domain store.Domain, queryEmbedding []float32, threshold float64, count int) ([]store.CandidateResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := f.errDomains[domain]; err != nil {
		return nil, err
	}
	return f.byDomain[domain], nil
}

func candidate(domain store.Domain, identity string, similarity float64, metadata map[string]interface{}) store.CandidateResult {
	return store.CandidateResult{
		Domain:      domain,
		IdentityKey: identity,
		Content:     "content of " + identity,
		Metadata:    metadata,
		Similarity:  similarity,
	}
}

func testPlan() plan.Plan {
	return plan.Plan{
		Domains: []store.Domain{store.DomainAccommodation, store.DomainTourism},
		DimensionsByDomain: map[store.Domain]int{
			store.DomainAccommodation: 1024,
			store.DomainTourism:       3072,
		},
		CountsByDomain: map[store.Domain]int{
			store.DomainAccommodation: 4,
			store.DomainTourism:       4,
		},
	}
}

func newTestRetriever(embedder embedding.Provider, gateway Gateway) *Retriever {
	return NewRetriever(embedder, gateway, log.New(io.Discard, "", 0))
}

func TestRetrieveDeduplicatesKeepingBestSimilarity(t *testing.T) {
	gateway := &fakeGateway{byDomain: map[store.Domain][]store.CandidateResult{
		store.DomainAccommodation: {
			candidate(store.DomainAccommodation, "unit-dreamland", 0.71, nil),
			candidate(store.DomainAccommodation, "unit-dreamland", 0.88, nil),
			candidate(store.DomainAccommodation, "unit-sunset", 0.65, nil),
		},
	}}
	r := newTestRetriever(&fakeEmbedder{}, gateway)

	p := testPlan()
	p.Domains = []store.Domain{store.DomainAccommodation}
	mq := expand.MultiQuery{Queries: []string{"q1", "q2"}}

	got := r.Retrieve(context.Background(), mq, p, &intent.Intent{Type: intent.TypeGeneral})

	require.Len(t, got, 2)
	assert.Equal(t, "unit-dreamland", got[0].IdentityKey)
	assert.InDelta(t, 0.88, got[0].Similarity, 0.001)
	assert.Equal(t, "unit-sunset", got[1].IdentityKey)
}

func TestRetrieveSurvivesSingleDomainFailure(t *testing.T) {
	gateway := &fakeGateway{
		byDomain: map[store.Domain][]store.CandidateResult{
			store.DomainTourism: {candidate(store.DomainTourism, "beach-guide", 0.8, nil)},
		},
		errDomains: map[store.Domain]error{
			store.DomainAccommodation: errors.New("procedure missing"),
		},
	}
	r := newTestRetriever(&fakeEmbedder{}, gateway)

	got := r.Retrieve(context.Background(),
		expand.MultiQuery{Queries: []string{"q"}}, testPlan(), &intent.Intent{Type: intent.TypeTourism})

	require.Len(t, got, 1)
	assert.Equal(t, "beach-guide", got[0].IdentityKey)
}

func TestRetrieveReturnsEmptySliceWhenEverythingFails(t *testing.T) {
	r := newTestRetriever(&fakeEmbedder{err: errors.New("embedder down")}, &fakeGateway{})

	got := r.Retrieve(context.Background(),
		expand.MultiQuery{Queries: []string{"q"}}, testPlan(), &intent.Intent{Type: intent.TypeGeneral})

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRetrieveEmptyPlan(t *testing.T) {
	gateway := &fakeGateway{}
	r := newTestRetriever(&fakeEmbedder{}, gateway)

	got := r.Retrieve(context.Background(),
		expand.MultiQuery{Queries: []string{"q"}}, plan.Plan{}, &intent.Intent{Type: intent.TypeGeneral})

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, gateway.calls)
}

func TestRetrieveUsesPlannedDimensionsPerDomain(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestRetriever(embedder, &fakeGateway{})

	r.Retrieve(context.Background(),
		expand.MultiQuery{Queries: []string{"q1", "q2"}}, testPlan(), &intent.Intent{Type: intent.TypeGeneral})

	assert.ElementsMatch(t, []int{1024, 1024, 3072, 3072}, embedder.dims)
}

func TestRetrieveDeterministicOrder(t *testing.T) {
	gateway := &fakeGateway{byDomain: map[store.Domain][]store.CandidateResult{
		store.DomainAccommodation: {
			candidate(store.DomainAccommodation, "unit-b", 0.7, nil),
			candidate(store.DomainAccommodation, "unit-a", 0.7, nil),
			candidate(store.DomainAccommodation, "unit-c", 0.9, nil),
		},
	}}
	r := newTestRetriever(&fakeEmbedder{}, gateway)

	p := testPlan()
	p.Domains = []store.Domain{store.DomainAccommodation}

	for i := 0; i < 5; i++ {
		got := r.Retrieve(context.Background(),
			expand.MultiQuery{Queries: []string{"q"}}, p, &intent.Intent{Type: intent.TypeGeneral})

		require.Len(t, got, 3)
		assert.Equal(t, "unit-c", got[0].IdentityKey)
		assert.Equal(t, "unit-a", got[1].IdentityKey)
		assert.Equal(t, "unit-b", got[2].IdentityKey)
	}
}

func TestRetrieveAppliesMetadataFilters(t *testing.T) {
	gateway := &fakeGateway{byDomain: map[store.Domain][]store.CandidateResult{
		store.DomainTourism: {
			candidate(store.DomainTourism, "restaurant-luna", 0.9, map[string]interface{}{"category": "restaurant"}),
			candidate(store.DomainTourism, "surf-school", 0.85, map[string]interface{}{"category": "activity"}),
			candidate(store.DomainTourism, "old-town-walk", 0.8, nil),
		},
	}}
	r := newTestRetriever(&fakeEmbedder{}, gateway)

	p := testPlan()
	p.Domains = []store.Domain{store.DomainTourism}
	qi := &intent.Intent{
		Type:            intent.TypeTourism,
		MetadataFilters: map[string][]string{"category": {"Restaurant"}},
	}

	got := r.Retrieve(context.Background(), expand.MultiQuery{Queries: []string{"q"}}, p, qi)

	// The mismatching category is dropped; missing metadata is kept.
	require.Len(t, got, 2)
	assert.Equal(t, "restaurant-luna", got[0].IdentityKey)
	assert.Equal(t, "old-town-walk", got[1].IdentityKey)
}

func TestRetrieveIgnoresUnfilterableFields(t *testing.T) {
	gateway := &fakeGateway{byDomain: map[store.Domain][]store.CandidateResult{
		store.DomainTourism: {
			candidate(store.DomainTourism, "beach-guide", 0.8, map[string]interface{}{"author": "someone"}),
		},
	}}
	r := newTestRetriever(&fakeEmbedder{}, gateway)

	p := testPlan()
	p.Domains = []store.Domain{store.DomainTourism}
	qi := &intent.Intent{
		Type:            intent.TypeTourism,
		MetadataFilters: map[string][]string{"author": {"someone else"}},
	}

	got := r.Retrieve(context.Background(), expand.MultiQuery{Queries: []string{"q"}}, p, qi)

	assert.Len(t, got, 1)
}
