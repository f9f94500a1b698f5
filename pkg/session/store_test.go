package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-assistant-be/pkg/store"
)

func TestGetOrCreateMintsFreshSession(t *testing.T) {
	s := NewStore(time.Hour)

	sess, created := s.GetOrCreate("")

	assert.True(t, created)
	require.NotNil(t, sess)
	_, err := uuid.Parse(sess.ID)
	assert.NoError(t, err)
	assert.Empty(t, sess.History)
}

func TestGetOrCreateNeverAdoptsUnknownID(t *testing.T) {
	s := NewStore(time.Hour)
	supplied := uuid.NewString()

	sess, created := s.GetOrCreate(supplied)

	assert.True(t, created)
	assert.NotEqual(t, supplied, sess.ID)
}

func TestGetOrCreateReturnsExistingSession(t *testing.T) {
	s := NewStore(time.Hour)
	first, _ := s.GetOrCreate("")

	second, created := s.GetOrCreate(first.ID)

	assert.False(t, created)
	assert.Same(t, first, second)
}

func TestAppendTurnAddsUserAssistantPair(t *testing.T) {
	s := NewStore(time.Hour)
	sess, _ := s.GetOrCreate("")

	require.NoError(t, s.AppendTurn(sess.ID, "hello", "hi, how can I help?"))
	require.NoError(t, s.AppendTurn(sess.ID, "any rooms?", "yes, three"))

	got, created := s.GetOrCreate(sess.ID)
	assert.False(t, created)
	require.Len(t, got.History, 4)
	assert.Equal(t, store.RoleUser, got.History[0].Role)
	assert.Equal(t, store.RoleAssistant, got.History[1].Role)
	assert.Equal(t, "any rooms?", got.History[2].Content)
}

func TestAppendTurnUnknownSession(t *testing.T) {
	s := NewStore(time.Hour)

	assert.Error(t, s.AppendTurn(uuid.NewString(), "hello", "hi"))
}

func TestDeleteRemovesSession(t *testing.T) {
	s := NewStore(time.Hour)
	sess, _ := s.GetOrCreate("")

	s.Delete(sess.ID)

	_, created := s.GetOrCreate(sess.ID)
	assert.True(t, created)
}

func TestBoundedHistory(t *testing.T) {
	s := NewStore(time.Hour)
	sess, _ := s.GetOrCreate("")
	require.NoError(t, s.AppendTurn(sess.ID, "q1", "a1"))
	require.NoError(t, s.AppendTurn(sess.ID, "q2", "a2"))
	require.NoError(t, s.AppendTurn(sess.ID, "q3", "a3"))

	messages := BoundedHistory(sess, 4)

	require.Len(t, messages, 4)
	assert.Equal(t, "q2", messages[0].Content)
	assert.Equal(t, store.RoleUser, messages[0].Role)
	assert.Equal(t, "a3", messages[3].Content)
}

func TestStoreBoundedHistorySnapshot(t *testing.T) {
	s := NewStore(time.Hour)
	sess, _ := s.GetOrCreate("")
	require.NoError(t, s.AppendTurn(sess.ID, "q1", "a1"))

	messages := s.BoundedHistory(sess.ID, 10)
	require.Len(t, messages, 2)
	assert.Equal(t, "q1", messages[0].Content)

	assert.Empty(t, s.BoundedHistory(uuid.NewString(), 10))
}

func TestStoreBoundedHistoryConcurrentWithAppends(t *testing.T) {
	s := NewStore(time.Hour)
	sess, _ := s.GetOrCreate("")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.AppendTurn(sess.ID, "question", "answer")
		}()
		go func() {
			defer wg.Done()
			messages := s.BoundedHistory(sess.ID, 6)
			assert.LessOrEqual(t, len(messages), 6)
		}()
	}
	wg.Wait()

	assert.Len(t, s.BoundedHistory(sess.ID, 100), 40)
}

func TestBoundedHistoryEdgeCases(t *testing.T) {
	assert.Empty(t, BoundedHistory(nil, 10))

	s := NewStore(time.Hour)
	sess, _ := s.GetOrCreate("")
	assert.Empty(t, BoundedHistory(sess, 0))
	assert.Empty(t, BoundedHistory(sess, 10))
}
