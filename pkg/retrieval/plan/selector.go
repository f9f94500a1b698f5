package plan

import (
	"log"
	"strings"

	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/store"
)

// Plan decides which domains to search, at which embedding tier, and how the
// caller's context-chunk budget is split between them.
// Invariant: the counts never sum to more than the requested budget.
type Plan struct {
	Domains            []store.Domain
	DimensionsByDomain map[store.Domain]int
	CountsByDomain     map[store.Domain]int
}

// Config holds the tier dimensionalities and selector behavior.
type Config struct {
	// Embedding tiers. Fast trades precision for latency over the
	// structurally uniform accommodation domain; Full pays for finer
	// discrimination over long-tail tourism text.
	FastDimensions     int
	BalancedDimensions int
	FullDimensions     int

	// MaxPerDomain caps how much of the budget a single domain takes before
	// the remainder spills to the fallback domain.
	MaxPerDomain int

	// DisableShortCircuit forces the fallback domain into every plan even
	// when the primary already fills the budget. The short-circuit is a
	// cost optimization, not a correctness requirement, so tests can turn
	// it off.
	DisableShortCircuit bool
}

// DefaultConfig returns the production tier configuration.
func DefaultConfig() Config {
	return Config{
		FastDimensions:     1024,
		BalancedDimensions: 1536,
		FullDimensions:     3072,
		MaxPerDomain:       6,
	}
}

// Selector maps an intent to a Plan. Pure decision logic, no I/O.
type Selector struct {
	cfg    Config
	logger *log.Logger
}

func NewSelector(cfg Config, logger *log.Logger) *Selector {
	if cfg.MaxPerDomain <= 0 {
		cfg.MaxPerDomain = DefaultConfig().MaxPerDomain
	}
	return &Selector{cfg: cfg, logger: logger}
}

// Vocabulary used to decide whether the regulatory domain is worth querying.
// Accommodation and tourism inclusion is driven by the intent type itself;
// regulatory content only matters when the question names it.
var regulatoryVocabulary = []string{
	"sire", "passport", "registration", "regulation", "compliance",
	"legal", "tax", "visa", "document", "requirement", "law", "permit",
}

// Build produces the tier/domain plan for one request.
func (s *Selector) Build(qi *intent.Intent, maxContextChunks int) Plan {
	if maxContextChunks < 1 {
		maxContextChunks = 1
	}

	p := Plan{
		DimensionsByDomain: map[store.Domain]int{},
		CountsByDomain:     map[store.Domain]int{},
	}

	budget := maxContextChunks

	// Regulatory is an add-on domain: carve a small slice off the budget
	// when the question's vocabulary asks for it, never the whole budget.
	if budget > 1 && overlaps(qi.ExpectedEntities, regulatoryVocabulary) {
		reserve := 2
		if reserve > budget-1 {
			reserve = budget - 1
		}
		s.addDomain(&p, store.DomainRegulatory, s.cfg.BalancedDimensions, reserve)
		budget -= reserve
	}

	switch qi.Type {
	case intent.TypeInventoryComplete, intent.TypeSpecificUnit,
		intent.TypeFeatureInquiry, intent.TypePricingInquiry:
		s.splitPrimaryFallback(&p, budget,
			store.DomainAccommodation, s.cfg.FastDimensions,
			store.DomainTourism, s.cfg.FullDimensions)

	case intent.TypeTourism:
		s.splitPrimaryFallback(&p, budget,
			store.DomainTourism, s.cfg.FullDimensions,
			store.DomainAccommodation, s.cfg.FastDimensions)

	default:
		// Unclassified intents still search something: both primary
		// domains, budget split proportionally, accommodation first.
		accCount := (budget + 1) / 2
		tourCount := budget - accCount
		s.addDomain(&p, store.DomainAccommodation, s.cfg.FastDimensions, accCount)
		if tourCount > 0 {
			s.addDomain(&p, store.DomainTourism, s.cfg.FullDimensions, tourCount)
		} else if s.cfg.DisableShortCircuit && accCount > 1 {
			p.CountsByDomain[store.DomainAccommodation]--
			s.addDomain(&p, store.DomainTourism, s.cfg.FullDimensions, 1)
		}
	}

	s.logger.Printf("[PLAN] intent=%s domains=%v counts=%v", qi.Type, p.Domains, p.CountsByDomain)

	return p
}

// splitPrimaryFallback gives the primary domain the budget up to the
// per-domain cap and reallocates any remainder to the fallback domain.
// When the primary alone fills the budget the fallback is skipped
// entirely, unless the short-circuit is disabled.
func (s *Selector) splitPrimaryFallback(p *Plan, budget int, primary store.Domain, primaryDims int, fallback store.Domain, fallbackDims int) {
	primaryCount := budget
	if primaryCount > s.cfg.MaxPerDomain {
		primaryCount = s.cfg.MaxPerDomain
	}
	remainder := budget - primaryCount

	if remainder == 0 && s.cfg.DisableShortCircuit && primaryCount > 1 {
		primaryCount--
		remainder = 1
	}

	s.addDomain(p, primary, primaryDims, primaryCount)
	if remainder > 0 {
		s.addDomain(p, fallback, fallbackDims, remainder)
	}
}

func (s *Selector) addDomain(p *Plan, d store.Domain, dims, count int) {
	if count <= 0 {
		return
	}
	p.Domains = append(p.Domains, d)
	p.DimensionsByDomain[d] = dims
	p.CountsByDomain[d] = count
}

func overlaps(entities, vocabulary []string) bool {
	for _, e := range entities {
		lowered := strings.ToLower(e)
		for _, v := range vocabulary {
			if strings.Contains(lowered, v) {
				return true
			}
		}
	}
	return false
}
