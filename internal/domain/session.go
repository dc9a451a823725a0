package domain

import "time"

// SessionStatus represents the state of a live broadcast session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionPaused SessionStatus = "paused"
	SessionEnded  SessionStatus = "ended"
)

// LiveSession is one instance of a creator-driven broadcast within a room.
// At most one session per room has a status other than ended.
type LiveSession struct {
	ID               string        `json:"id"`
	RoomID           string        `json:"room_id"`
	Status           SessionStatus `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
	PeakParticipants int           `json:"peak_participants"`
	TotalMessages    int           `json:"total_messages"`
	Duration         int64         `json:"duration"` // seconds, computed at end
}

// SessionStats is the summary emitted with session-ended.
type SessionStats struct {
	SessionID        string `json:"session_id"`
	Duration         int64  `json:"duration"`
	PeakParticipants int    `json:"peak_participants"`
	TotalMessages    int    `json:"total_messages"`
}
