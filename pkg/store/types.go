package store

import "time"

// Domain identifies an independently searchable content collection.
// Each domain has its own identity scheme and its own similarity-search
// procedure in the datastore.
type Domain string

const (
	DomainAccommodation Domain = "accommodation"
	DomainTourism       Domain = "tourism"
	DomainRegulatory    Domain = "regulatory"
)

// CandidateResult is a single retrieved item from one domain, before curation.
// IdentityKey is the deduplication key within a domain (accommodation unit
// name, tourism source file, document title).
type CandidateResult struct {
	Domain      Domain                 `json:"domain"`
	IdentityKey string                 `json:"identity_key"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Similarity  float64                `json:"similarity"`
}

// Message roles for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ConversationSession holds the multi-turn state for one conversation thread.
type ConversationSession struct {
	ID             string    `json:"id"`
	History        []Turn    `json:"history"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
