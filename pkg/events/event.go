package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.turn_recorded").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used by publishers and
// reconstructed by subscribers.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// TypeChatTurnRecorded is emitted once per message of a completed exchange.
const TypeChatTurnRecorded = "chat.turn_recorded"

// NewChatTurnRecorded builds the archive event for one conversation turn.
func NewChatTurnRecorded(sessionID, role, content string, meta map[string]interface{}) BaseEvent {
	data := map[string]interface{}{
		"session_id": sessionID,
		"role":       role,
		"content":    content,
	}
	if len(meta) > 0 {
		data["metadata"] = meta
	}
	return BaseEvent{
		Type:       TypeChatTurnRecorded,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}
