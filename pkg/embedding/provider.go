package embedding

import "context"

// Task types hint the model at how the embedding will be used.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Result holds one embedding vector.
type Result struct {
	Values []float32
}

// Provider generates embeddings at a requested output dimensionality.
// The underlying model must support truncatable (Matryoshka) embeddings:
// the dimensionality is requested at generation time, never sliced after
// the fact. dimensions <= 0 means the model's native size.
type Provider interface {
	Generate(ctx context.Context, text, taskType string, dimensions int) (*Result, error)
}
