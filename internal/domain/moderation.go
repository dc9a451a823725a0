package domain

import (
	"encoding/json"
	"time"
)

// ModerationAction is a verb understood by the moderation engine.
type ModerationAction string

const (
	ActionMute   ModerationAction = "mute"
	ActionUnmute ModerationAction = "unmute"
	ActionKick   ModerationAction = "kick"
	ActionBan    ModerationAction = "ban"
	ActionUnban  ModerationAction = "unban"
)

// Valid reports whether the action is one the engine understands.
func (a ModerationAction) Valid() bool {
	switch a {
	case ActionMute, ActionUnmute, ActionKick, ActionBan, ActionUnban:
		return true
	}
	return false
}

// ModerationLogEntry is an append-only audit record. It is never consulted for
// live enforcement; enforcement reads participant fields directly.
type ModerationLogEntry struct {
	ID              string           `json:"id"`
	RoomID          string           `json:"room_id"`
	ModeratorID     string           `json:"moderator_id"`
	TargetID        string           `json:"target_id"`
	Action          ModerationAction `json:"action"`
	Reason          string           `json:"reason,omitempty"`
	DurationMinutes int              `json:"duration_minutes,omitempty"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// BroadcasterHandle is the single active streaming-source registration for a
// room. Ephemeral, never persisted; removed on stop or disconnect.
type BroadcasterHandle struct {
	RoomID       string
	ClientID     string
	UserID       string
	StreamConfig json.RawMessage
}
