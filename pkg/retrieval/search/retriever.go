package search

import (
	"context"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"guest-assistant-be/pkg/embedding"
	"guest-assistant-be/pkg/metrics"
	"guest-assistant-be/pkg/retrieval/expand"
	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/retrieval/plan"
	"guest-assistant-be/pkg/store"
)

// No similarity floor at the datastore: quality filtering is the curator's
// job, and a tuned threshold here would only produce false negatives.
const searchThreshold = 0.0

// defaultConcurrency bounds outstanding embedding/search calls.
const defaultConcurrency = 6

// Gateway exposes the per-domain similarity-search procedures of the
// datastore.
type Gateway interface {
	Search(ctx context.Context, domain store.Domain, queryEmbedding []float32, threshold float64, count int) ([]store.CandidateResult, error)
}

// Metadata fields the retriever is allowed to post-filter on, per domain.
// Intent filters naming any other field are ignored.
var filterableFields = map[store.Domain][]string{
	store.DomainTourism:       {"category", "subcategory"},
	store.DomainAccommodation: {"unit_type"},
}

// Retriever fans one multi-query out across the planned domains, merges the
// candidate sets and deduplicates them.
type Retriever struct {
	embedder    embedding.Provider
	gateway     Gateway
	logger      *log.Logger
	concurrency int
}

func NewRetriever(embedder embedding.Provider, gateway Gateway, logger *log.Logger) *Retriever {
	return &Retriever{
		embedder:    embedder,
		gateway:     gateway,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
}

// Retrieve embeds every query at each planned domain's dimensionality, runs
// one similarity search per (domain, query) pair concurrently, then merges.
//
// A failing pair is logged and contributes nothing; the retriever never fails
// the request because one domain errored. If everything fails the result is
// simply empty and curation handles the empty case. Merge order is
// deterministic (similarity desc, then identity key) regardless of network
// timing.
func (r *Retriever) Retrieve(ctx context.Context, mq expand.MultiQuery, p plan.Plan, qi *intent.Intent) []store.CandidateResult {
	type task struct {
		domain     store.Domain
		dimensions int
		count      int
		query      string
	}

	var tasks []task
	for _, domain := range p.Domains {
		for _, query := range mq.Queries {
			tasks = append(tasks, task{
				domain:     domain,
				dimensions: p.DimensionsByDomain[domain],
				count:      p.CountsByDomain[domain],
				query:      query,
			})
		}
	}
	if len(tasks) == 0 {
		return []store.CandidateResult{}
	}

	results := make([][]store.CandidateResult, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			// Dimensionality is requested at generation time; the same
			// query text at two tiers means two independent calls.
			emb, err := r.embedder.Generate(gctx, t.query, embedding.TaskRetrievalQuery, t.dimensions)
			if err != nil {
				r.logger.Printf("[ERROR] Embedding failed (domain=%s): %v", t.domain, err)
				metrics.DomainSearchErrors.WithLabelValues(string(t.domain)).Inc()
				return nil
			}

			candidates, err := r.gateway.Search(gctx, t.domain, emb.Values, searchThreshold, t.count)
			if err != nil {
				r.logger.Printf("[ERROR] Domain search failed (domain=%s): %v", t.domain, err)
				metrics.DomainSearchErrors.WithLabelValues(string(t.domain)).Inc()
				return nil
			}

			results[i] = candidates
			return nil
		})
	}

	// Goroutines swallow their own errors; Wait only surfaces cancellation,
	// in which case partial results are discarded.
	if err := g.Wait(); err != nil || ctx.Err() != nil {
		return []store.CandidateResult{}
	}

	// Deduplicate within each domain by identity key, keeping the highest
	// similarity seen across query rewrites.
	best := make(map[store.Domain]map[string]store.CandidateResult)
	for _, batch := range results {
		for _, c := range batch {
			byKey, ok := best[c.Domain]
			if !ok {
				byKey = make(map[string]store.CandidateResult)
				best[c.Domain] = byKey
			}
			if prev, ok := byKey[c.IdentityKey]; !ok || c.Similarity > prev.Similarity {
				byKey[c.IdentityKey] = c
			}
		}
	}

	var merged []store.CandidateResult
	for _, byKey := range best {
		for _, c := range byKey {
			if keepCandidate(c, qi.MetadataFilters) {
				merged = append(merged, c)
			}
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].IdentityKey < merged[j].IdentityKey
	})

	r.logger.Printf("[RETRIEVE] %d candidates after dedup from %d (domain, query) searches", len(merged), len(tasks))

	if merged == nil {
		merged = []store.CandidateResult{}
	}
	return merged
}

// keepCandidate applies the intent's metadata allow-lists, but only over the
// fields configured as filterable for the candidate's domain. Candidates
// missing the metadata field are kept: dropping them would reintroduce the
// false negatives the zero search threshold exists to avoid.
func keepCandidate(c store.CandidateResult, filters map[string][]string) bool {
	if len(filters) == 0 {
		return true
	}

	for _, field := range filterableFields[c.Domain] {
		allowed, ok := filters[field]
		if !ok || len(allowed) == 0 {
			continue
		}
		raw, ok := c.Metadata[field]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			continue
		}
		if !containsFold(allowed, value) {
			return false
		}
	}
	return true
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
