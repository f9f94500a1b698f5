package dto

// EmbedContentMessage is the internal bus payload between the ingest
// endpoint and the embedding consumer.
type EmbedContentMessage struct {
	Domain   string                 `json:"domain"`
	Identity string                 `json:"identity"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
