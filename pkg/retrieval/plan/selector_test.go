package plan

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/store"
)

func newTestSelector(disableShortCircuit bool) *Selector {
	cfg := DefaultConfig()
	cfg.DisableShortCircuit = disableShortCircuit
	return NewSelector(cfg, log.New(io.Discard, "", 0))
}

func sumCounts(p Plan) int {
	total := 0
	for _, n := range p.CountsByDomain {
		total += n
	}
	return total
}

func TestBuildAccommodationPrimaryWithSpillover(t *testing.T) {
	s := newTestSelector(false)
	qi := &intent.Intent{Type: intent.TypeFeatureInquiry, Confidence: 0.9}

	p := s.Build(qi, 8)

	require.ElementsMatch(t, []store.Domain{store.DomainAccommodation, store.DomainTourism}, p.Domains)
	assert.Equal(t, 6, p.CountsByDomain[store.DomainAccommodation])
	assert.Equal(t, 2, p.CountsByDomain[store.DomainTourism])
	assert.Equal(t, 1024, p.DimensionsByDomain[store.DomainAccommodation])
	assert.Equal(t, 3072, p.DimensionsByDomain[store.DomainTourism])
	assert.Equal(t, 8, sumCounts(p))
}

func TestBuildShortCircuitsFallbackWhenPrimaryFillsBudget(t *testing.T) {
	s := newTestSelector(false)
	qi := &intent.Intent{Type: intent.TypeSpecificUnit, Confidence: 0.9}

	p := s.Build(qi, 4)

	assert.Equal(t, []store.Domain{store.DomainAccommodation}, p.Domains)
	assert.Equal(t, 4, p.CountsByDomain[store.DomainAccommodation])
	assert.NotContains(t, p.CountsByDomain, store.DomainTourism)
}

func TestBuildShortCircuitOverride(t *testing.T) {
	s := newTestSelector(true)
	qi := &intent.Intent{Type: intent.TypeSpecificUnit, Confidence: 0.9}

	p := s.Build(qi, 4)

	assert.Equal(t, 3, p.CountsByDomain[store.DomainAccommodation])
	assert.Equal(t, 1, p.CountsByDomain[store.DomainTourism])
	assert.Equal(t, 4, sumCounts(p))
}

func TestBuildTourismPrimary(t *testing.T) {
	s := newTestSelector(false)
	qi := &intent.Intent{Type: intent.TypeTourism, Confidence: 0.9}

	p := s.Build(qi, 8)

	assert.Equal(t, 6, p.CountsByDomain[store.DomainTourism])
	assert.Equal(t, 2, p.CountsByDomain[store.DomainAccommodation])
	assert.Equal(t, 3072, p.DimensionsByDomain[store.DomainTourism])
}

func TestBuildGeneralSplitsBothDomains(t *testing.T) {
	s := newTestSelector(false)
	qi := &intent.Intent{Type: intent.TypeGeneral}

	p := s.Build(qi, 5)

	assert.Equal(t, 3, p.CountsByDomain[store.DomainAccommodation])
	assert.Equal(t, 2, p.CountsByDomain[store.DomainTourism])
	assert.Equal(t, 5, sumCounts(p))
}

func TestBuildRegulatoryCarveOut(t *testing.T) {
	s := newTestSelector(false)
	qi := &intent.Intent{
		Type:             intent.TypeGeneral,
		ExpectedEntities: []string{"passport", "registration"},
	}

	p := s.Build(qi, 8)

	require.Contains(t, p.CountsByDomain, store.DomainRegulatory)
	assert.Equal(t, 2, p.CountsByDomain[store.DomainRegulatory])
	assert.Equal(t, 1536, p.DimensionsByDomain[store.DomainRegulatory])
	assert.Equal(t, 8, sumCounts(p))
}

func TestBuildRegulatorySkippedWithoutVocabulary(t *testing.T) {
	s := newTestSelector(false)
	qi := &intent.Intent{
		Type:             intent.TypeTourism,
		ExpectedEntities: []string{"beach", "snorkeling"},
	}

	p := s.Build(qi, 8)

	assert.NotContains(t, p.CountsByDomain, store.DomainRegulatory)
}

func TestBuildNeverExceedsBudget(t *testing.T) {
	s := newTestSelector(true)
	intents := []*intent.Intent{
		{Type: intent.TypeInventoryComplete},
		{Type: intent.TypeSpecificUnit, ExpectedEntities: []string{"passport"}},
		{Type: intent.TypeTourism},
		{Type: intent.TypeGeneral, ExpectedEntities: []string{"tax", "law"}},
	}

	for _, qi := range intents {
		for budget := 1; budget <= 12; budget++ {
			p := s.Build(qi, budget)
			assert.LessOrEqual(t, sumCounts(p), budget, "intent=%s budget=%d", qi.Type, budget)
			for _, d := range p.Domains {
				assert.Positive(t, p.CountsByDomain[d])
				assert.Positive(t, p.DimensionsByDomain[d])
			}
		}
	}
}

func TestBuildMinimumBudgetIsOne(t *testing.T) {
	s := newTestSelector(false)
	p := s.Build(&intent.Intent{Type: intent.TypeTourism}, 0)

	assert.Equal(t, 1, sumCounts(p))
}
