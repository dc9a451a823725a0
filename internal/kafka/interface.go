package kafka

import (
	"context"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
)

// Event types exported for the out-of-scope statistics and reporting
// consumers.
const (
	EventMessageSent      = "message_sent"
	EventSessionEnded     = "session_ended"
	EventModerationAction = "moderation_action"
)

// Event is the envelope produced to the event topic.
type Event struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EventProducer publishes room events. Implementations must be safe for
// concurrent use; failures are non-fatal to the operations that emit them.
type EventProducer interface {
	ProduceMessageEvent(ctx context.Context, msg *domain.Message) error
	ProduceSessionEnded(ctx context.Context, roomID string, stats domain.SessionStats) error
	ProduceModerationEvent(ctx context.Context, entry *domain.ModerationLogEntry) error
	Close() error
}
