package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"guest-assistant-be/pkg/llm"
	"guest-assistant-be/pkg/store"
)

// Store keeps conversation sessions in memory with a sliding TTL.
// Sessions are never deleted by the pipeline itself; only an explicit caller
// reset removes one before its TTL expires.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration

	// One conversation per session id in practice; the mutex only keeps a
	// racing pair of writes from corrupting the history slice
	// (last-write-wins is acceptable).
	mu sync.Mutex
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// GetOrCreate returns the session for sessionID, or a brand-new session with
// a freshly generated id when the supplied id is absent, invalid, or unknown.
// The supplied id is never adopted for a new session. created reports whether
// a new session was minted.
func (s *Store) GetOrCreate(sessionID string) (sess *store.ConversationSession, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(sessionID); err == nil {
		if x, found := s.cache.Get(sessionID); found {
			return x.(*store.ConversationSession), false
		}
	}

	now := time.Now().UTC()
	sess = &store.ConversationSession{
		ID:             uuid.NewString(),
		History:        []store.Turn{},
		CreatedAt:      now,
		LastActivityAt: now,
	}
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
	return sess, true
}

// AppendTurn records exactly one user/assistant pair. Partial or out-of-order
// appends are not supported.
func (s *Store) AppendTurn(sessionID, userText, assistantText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.cache.Get(sessionID)
	if !found {
		return fmt.Errorf("session %s not found", sessionID)
	}
	sess := x.(*store.ConversationSession)

	now := time.Now().UTC()
	sess.History = append(sess.History,
		store.Turn{Role: store.RoleUser, Content: userText, At: now},
		store.Turn{Role: store.RoleAssistant, Content: assistantText, At: now},
	)
	sess.LastActivityAt = now

	// Re-set to slide the TTL window with activity.
	s.cache.Set(sessionID, sess, cache.DefaultExpiration)
	return nil
}

// Delete removes a session (caller-initiated reset).
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(sessionID)
}

// BoundedHistory converts the session's most recent maxTurns entries into
// model messages, oldest first. The snapshot is taken under the store lock,
// so a concurrent AppendTurn on the same session never races the read.
// Unknown sessions yield an empty history.
func (s *Store) BoundedHistory(sessionID string, maxTurns int) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.cache.Get(sessionID)
	if !found {
		return []llm.Message{}
	}
	return boundedMessages(x.(*store.ConversationSession).History, maxTurns)
}

// BoundedHistory is the pure variant for a session the caller owns
// exclusively. The model never sees unbounded history.
func BoundedHistory(sess *store.ConversationSession, maxTurns int) []llm.Message {
	if sess == nil {
		return []llm.Message{}
	}
	return boundedMessages(sess.History, maxTurns)
}

func boundedMessages(history []store.Turn, maxTurns int) []llm.Message {
	if maxTurns <= 0 {
		return []llm.Message{}
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}
