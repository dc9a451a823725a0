package domain

import "time"

// Identity is the already-authenticated caller identity handed to the core.
// Credential issuance and validation happen upstream.
type Identity struct {
	UserID      string
	DisplayName string
	Tier        string
}

// Role is a participant's role within one room.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleModerator   Role = "moderator"
	RoleCreator     Role = "creator"
)

// Room is an ephemeral interaction space with bounded membership and at most
// one live session. Mutated only by its own coordinator.
type Room struct {
	ID               string     `json:"id"`
	CreatorID        string     `json:"creator_id"`
	Title            string     `json:"title"`
	IsActive         bool       `json:"is_active"`
	IsLive           bool       `json:"is_live"`
	CurrentSessionID *string    `json:"current_session_id,omitempty"`
	StreamURL        *string    `json:"stream_url,omitempty"`
	ChatEnabled      bool       `json:"chat_enabled"`
	SlowModeSeconds  int        `json:"slow_mode_seconds"`
	ParticipantCount int        `json:"participant_count"`
	MaxParticipants  int        `json:"max_participants"`
	TotalMessages    int        `json:"total_messages"`
	CreatedAt        time.Time  `json:"created_at"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
}

// Participant is one (room, user) membership. Re-joining reactivates the same
// record rather than creating a duplicate.
type Participant struct {
	RoomID         string     `json:"room_id"`
	UserID         string     `json:"user_id"`
	DisplayName    string     `json:"display_name"`
	Role           Role       `json:"role"`
	Mood           string     `json:"mood,omitempty"`
	IsActive       bool       `json:"is_active"`
	JoinedAt       time.Time  `json:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty"`
	TotalTimeSpent int64      `json:"total_time_spent"` // seconds, only increases
	IsMuted        bool       `json:"is_muted"`
	MutedUntil     *time.Time `json:"muted_until,omitempty"`
	IsBanned       bool       `json:"is_banned"`
	BannedUntil    *time.Time `json:"banned_until,omitempty"`
	LastMessageAt  *time.Time `json:"-"`
}

// MuteActive reports whether the participant's mute is enforced at the given
// instant. Expiry is computed lazily at point of use; the boolean flag alone
// does not reflect current enforcement state.
func (p *Participant) MuteActive(now time.Time) bool {
	if !p.IsMuted {
		return false
	}
	return p.MutedUntil == nil || p.MutedUntil.After(now)
}

// BanActive reports whether the participant's ban is enforced at the given
// instant, using the same lazy-expiry rule as MuteActive.
func (p *Participant) BanActive(now time.Time) bool {
	if !p.IsBanned {
		return false
	}
	return p.BannedUntil == nil || p.BannedUntil.After(now)
}

// CanModerate reports whether the participant may issue moderation actions.
func (p *Participant) CanModerate() bool {
	return p.Role == RoleCreator || p.Role == RoleModerator
}
