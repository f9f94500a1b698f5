package dto

// SendMessageRequest is one guest question. SessionId is optional; an
// absent or unknown id makes the service mint a fresh session and return it.
type SendMessageRequest struct {
	SessionId        string `json:"session_id,omitempty"`
	Message          string `json:"message" validate:"required,min=3,max=500"`
	MaxContextChunks int    `json:"max_context_chunks,omitempty" validate:"omitempty,min=1,max=20"`
}

type IntentDTO struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type SourceDTO struct {
	Domain      string  `json:"domain"`
	Identity    string  `json:"identity"`
	Score       float64 `json:"score"`
	WhyRelevant string  `json:"why_relevant"`
}

type SendMessageResponse struct {
	SessionId          string         `json:"session_id"`
	Answer             string         `json:"answer"`
	Intent             IntentDTO      `json:"intent"`
	Sources            []SourceDTO    `json:"sources"`
	PerformanceMetrics map[string]int `json:"performance_metrics"`
	CacheHit           bool           `json:"cache_hit"`
	Degraded           bool           `json:"degraded,omitempty"`
}

// IngestContentRequest enqueues one item for embedding and indexing.
type IngestContentRequest struct {
	Domain   string                 `json:"domain" validate:"required,oneof=accommodation tourism regulatory"`
	Identity string                 `json:"identity" validate:"required,max=255"`
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type IngestContentResponse struct {
	Domain   string `json:"domain"`
	Identity string `json:"identity"`
	Queued   bool   `json:"queued"`
}
