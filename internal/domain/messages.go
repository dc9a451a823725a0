package domain

import (
	"encoding/json"
	"time"
)

// WebSocket message types from client.
const (
	MsgTypeAuth           = "auth"
	MsgTypeJoinRoom       = "join-room"
	MsgTypeLeaveRoom      = "leave-room"
	MsgTypeSendMessage    = "send-message"
	MsgTypeTyping         = "typing"
	MsgTypeReact          = "react-to-message"
	MsgTypeStartSession   = "start-session"
	MsgTypeEndSession     = "end-session"
	MsgTypePauseSession   = "pause-session"
	MsgTypeResumeSession  = "resume-session"
	MsgTypeModerateUser   = "moderate-user"
	MsgTypeDeleteMessage  = "delete-message"
	MsgTypePinMessage     = "pin-message"
	MsgTypeStartBroadcast = "start-broadcast"
	MsgTypeStopBroadcast  = "stop-broadcast"
	MsgTypeRequestStream  = "request-stream"
	MsgTypeOffer          = "webrtc-offer"
	MsgTypeAnswer         = "webrtc-answer"
	MsgTypeICECandidate   = "ice-candidate"
	MsgTypeQualityChange  = "request-quality-change"
	MsgTypePing           = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeAuthResult          = "auth-result"
	MsgTypeUserJoined          = "user-joined"
	MsgTypeUserLeft            = "user-left"
	MsgTypeParticipantsUpdated = "participants-updated"
	MsgTypeNewMessage          = "new-message"
	MsgTypeUserTyping          = "user-typing"
	MsgTypeReactionUpdated     = "message-reaction-updated"
	MsgTypeSessionStarted      = "session-started"
	MsgTypeSessionEnded        = "session-ended"
	MsgTypeSessionPaused       = "session-paused"
	MsgTypeSessionResumed      = "session-resumed"
	MsgTypeUserModerated       = "user-moderated"
	MsgTypeModerationNotice    = "moderation-notice"
	MsgTypeMessageDeleted      = "message-deleted"
	MsgTypeMessagePinned       = "message-pinned"
	MsgTypeBroadcastStarted    = "broadcast-started"
	MsgTypeBroadcastEnded      = "broadcast-ended"
	MsgTypeError               = "error"
	MsgTypePong                = "pong"
)

// Error codes returned with policy rejections and lookup failures.
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeRoomNotFound        = "ROOM_NOT_FOUND"
	ErrCodeRoomInactive        = "ROOM_INACTIVE"
	ErrCodeRoomFull            = "ROOM_FULL"
	ErrCodeBanned              = "BANNED"
	ErrCodeMuted               = "MUTED"
	ErrCodeSlowMode            = "SLOW_MODE"
	ErrCodeChatDisabled        = "CHAT_DISABLED"
	ErrCodeNotInRoom           = "NOT_IN_ROOM"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidSessionState = "INVALID_SESSION_STATE"
	ErrCodeAlreadyBroadcasting = "ALREADY_BROADCASTING"
	ErrCodeMessageNotFound     = "MESSAGE_NOT_FOUND"
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type AuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type JoinRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Mood   string `json:"mood,omitempty"`
}

type LeaveRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type SendMessageMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
}

type TypingMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

type ReactMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type SessionControlMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type ModerateUserMessage struct {
	Type            string `json:"type"`
	RoomID          string `json:"room_id"`
	TargetID        string `json:"target_id"`
	Action          string `json:"action"`
	Reason          string `json:"reason,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

type MessageControlMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

type StartBroadcastMessage struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"room_id"`
	StreamConfig json.RawMessage `json:"stream_config,omitempty"`
}

type StopBroadcastMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type RequestStreamMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

// SignalEnvelope carries an opaque peer-negotiation payload. The relay routes
// by target user id and never inspects the payload.
type SignalEnvelope struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"room_id"`
	TargetID string          `json:"target_id,omitempty"`
	FromID   string          `json:"from_id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// Server -> Client messages

type AuthResultMessage struct {
	Type        string `json:"type"`
	Success     bool   `json:"success"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Message     string `json:"message,omitempty"`
}

type UserJoinedMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Mood        string `json:"mood,omitempty"`
}

type UserLeftMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type ParticipantsUpdatedMessage struct {
	Type             string            `json:"type"`
	RoomID           string            `json:"room_id"`
	ParticipantCount int               `json:"participant_count"`
	Participants     []ParticipantInfo `json:"participants"`
}

// ParticipantInfo is the member summary sent with participants-updated.
type ParticipantInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	Mood        string `json:"mood,omitempty"`
}

type NewMessageMessage struct {
	Type    string   `json:"type"`
	RoomID  string   `json:"room_id"`
	Message *Message `json:"message"`
}

type UserTypingMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsTyping    bool   `json:"is_typing"`
}

type ReactionUpdatedMessage struct {
	Type      string              `json:"type"`
	RoomID    string              `json:"room_id"`
	MessageID string              `json:"message_id"`
	Reactions map[string][]string `json:"reactions"`
}

type SessionEventMessage struct {
	Type      string        `json:"type"`
	RoomID    string        `json:"room_id"`
	SessionID string        `json:"session_id"`
	Stats     *SessionStats `json:"stats,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type UserModeratedMessage struct {
	Type      string     `json:"type"`
	RoomID    string     `json:"room_id"`
	TargetID  string     `json:"target_id"`
	Action    string     `json:"action"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ModerationNoticeMessage is the direct notice a kicked or banned user
// receives, distinct from the room-wide user-moderated event.
type ModerationNoticeMessage struct {
	Type      string     `json:"type"`
	RoomID    string     `json:"room_id"`
	Action    string     `json:"action"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type MessageDeletedMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

type MessagePinnedMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	// UnpinnedID carries the message that lost its pin, if any.
	UnpinnedID string `json:"unpinned_id,omitempty"`
}

type BroadcastEventMessage struct {
	Type          string          `json:"type"`
	RoomID        string          `json:"room_id"`
	BroadcasterID string          `json:"broadcaster_id,omitempty"`
	StreamConfig  json.RawMessage `json:"stream_config,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorMessage creates a new error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
