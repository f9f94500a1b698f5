package service

import (
	"context"
	"encoding/json"
	"fmt"

	"guest-assistant-be/internal/model"
	"guest-assistant-be/internal/pkg/logger"
	"guest-assistant-be/pkg/events"
	natsbus "guest-assistant-be/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IArchiverService interface {
	Start() error
}

// archiverService drains chat.turn_recorded events into the chat_turns table.
// It runs alongside the API process; a crash loses nothing because the
// durable consumer resumes from the last acknowledged message.
type archiverService struct {
	subscriber *natsbus.Subscriber
	db         *gorm.DB
	logger     logger.ILogger
}

func NewArchiverService(subscriber *natsbus.Subscriber, db *gorm.DB, logger logger.ILogger) IArchiverService {
	return &archiverService{
		subscriber: subscriber,
		db:         db,
		logger:     logger,
	}
}

func (s *archiverService) Start() error {
	return s.subscriber.Subscribe(
		"events."+events.TypeChatTurnRecorded,
		"chat-turn-archiver",
		s.handleTurn,
	)
}

func (s *archiverService) handleTurn(ctx context.Context, event events.Event) error {
	data := event.Payload()

	sessionID, _ := data["session_id"].(string)
	role, _ := data["role"].(string)
	content, _ := data["content"].(string)

	sid, err := uuid.Parse(sessionID)
	if err != nil {
		// Unparseable ids never become parseable; log and ack.
		s.logger.Warn("archiver", "Dropping turn with invalid session id", map[string]interface{}{
			"session_id": sessionID,
		})
		return nil
	}
	if role == "" {
		return fmt.Errorf("turn event for session %s has no role", sessionID)
	}

	var metadata datatypes.JSON
	if meta, ok := data["metadata"].(map[string]interface{}); ok && len(meta) > 0 {
		if raw, err := json.Marshal(meta); err == nil {
			metadata = raw
		}
	}

	turn := model.ChatTurn{
		SessionId: sid,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: event.Timestamp(),
	}

	if err := s.db.WithContext(ctx).Create(&turn).Error; err != nil {
		return fmt.Errorf("failed to archive turn for session %s: %w", sessionID, err)
	}

	return nil
}
