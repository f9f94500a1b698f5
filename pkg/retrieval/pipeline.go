package retrieval

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"guest-assistant-be/pkg/metrics"
	"guest-assistant-be/pkg/retrieval/curate"
	"guest-assistant-be/pkg/retrieval/expand"
	"guest-assistant-be/pkg/retrieval/intent"
	"guest-assistant-be/pkg/retrieval/plan"
	"guest-assistant-be/pkg/retrieval/search"
	"guest-assistant-be/pkg/semcache"
	"guest-assistant-be/pkg/session"
)

// defaultMaxContextChunks bounds the curated context when the caller does
// not specify a budget.
const defaultMaxContextChunks = 8

// Pipeline wires the five retrieval stages behind the semantic cache:
// classify -> plan -> expand -> retrieve -> curate. Stages run strictly in
// order; only the retrieve stage is internally concurrent.
type Pipeline struct {
	classifier *intent.Classifier
	selector   *plan.Selector
	expander   *expand.Expander
	retriever  *search.Retriever
	curator    *curate.Curator
	sessions   *session.Store
	cache      *semcache.Cache
	logger     *log.Logger
}

func NewPipeline(
	classifier *intent.Classifier,
	selector *plan.Selector,
	expander *expand.Expander,
	retriever *search.Retriever,
	curator *curate.Curator,
	sessions *session.Store,
	cache *semcache.Cache,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		selector:   selector,
		expander:   expander,
		retriever:  retriever,
		curator:    curator,
		sessions:   sessions,
		cache:      cache,
		logger:     logger,
	}
}

// AnswerInput is one question against the pipeline.
type AnswerInput struct {
	Question         string
	SessionID        string // optional; invalid or unknown ids mint a new session
	MaxContextChunks int    // <=0 uses the default budget
}

// AnswerResult is the pipeline's output contract toward the response
// composer and transport layer. Rendering the final text is not this
// pipeline's job.
type AnswerResult struct {
	Curation           curate.Output  `json:"curation"`
	Intent             intent.Intent  `json:"intent"`
	SessionID          string         `json:"session_id"`
	PerformanceMetrics map[string]int `json:"performance_metrics"`
	CacheHit           bool           `json:"cache_hit"`
}

// Answer runs the full pipeline for one question. Stage failures degrade per
// their own contracts and never surface here; the only error returned is
// caller cancellation, in which case partial results are discarded.
func (p *Pipeline) Answer(ctx context.Context, in AnswerInput) (*AnswerResult, error) {
	metrics.AnswerRequests.Inc()

	maxChunks := in.MaxContextChunks
	if maxChunks <= 0 {
		maxChunks = defaultMaxContextChunks
	}

	// The session is resolved regardless of cache outcome: turn history
	// belongs to the conversation, not to the cached payload.
	sess, created := p.sessions.GetOrCreate(in.SessionID)
	if created {
		p.logger.Printf("[SESSION] minted %s", sess.ID)
	}

	if payload, found := p.cache.Lookup(ctx, in.Question); found {
		var cached AnswerResult
		if err := json.Unmarshal(payload, &cached); err == nil {
			cached.SessionID = sess.ID
			cached.CacheHit = true
			p.logger.Printf("[CACHE] hit for %q", in.Question)
			return &cached, nil
		}
		p.logger.Printf("[WARN] Discarding undecodable cache payload for %q", in.Question)
	}

	started := time.Now()
	perf := map[string]int{}

	qi := p.classifier.Classify(ctx, in.Question)
	perf["intent_ms"] = stageMillis(&started, "intent")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tierPlan := p.selector.Build(qi, maxChunks)

	mq := p.expander.Expand(ctx, in.Question, qi)
	perf["expand_ms"] = stageMillis(&started, "expand")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := p.retriever.Retrieve(ctx, mq, tierPlan, qi)
	perf["retrieve_ms"] = stageMillis(&started, "retrieve")
	perf["candidate_count"] = len(candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	curation := p.curator.Curate(ctx, in.Question, qi, candidates, maxChunks)
	perf["curate_ms"] = stageMillis(&started, "curate")
	perf["curated_count"] = len(curation.TopResults)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var total int
	for k, v := range perf {
		if k != "candidate_count" && k != "curated_count" {
			total += v
		}
	}
	perf["total_ms"] = total

	result := &AnswerResult{
		Curation:           curation,
		Intent:             *qi,
		SessionID:          sess.ID,
		PerformanceMetrics: perf,
	}

	// Degraded or empty curations are not worth an hour of cache hits: both
	// usually mean a transient failure, not a stable answer.
	if !curation.Degraded && len(curation.TopResults) > 0 {
		if payload, err := json.Marshal(result); err == nil {
			p.cache.Store(ctx, in.Question, payload)
		}
	}

	return result, nil
}

// Sessions exposes the conversation store so the service layer can append
// turns once the final answer text exists.
func (p *Pipeline) Sessions() *session.Store {
	return p.sessions
}

func stageMillis(since *time.Time, stage string) int {
	elapsed := time.Since(*since)
	*since = time.Now()
	metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	return int(elapsed.Milliseconds())
}
