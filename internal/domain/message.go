package domain

import "time"

// MessageType distinguishes chat traffic from coordinator-generated notices.
type MessageType string

const (
	MessageTypeChat         MessageType = "message"
	MessageTypeSystem       MessageType = "system"
	MessageTypeAnnouncement MessageType = "announcement"
)

// Message belongs to a room and, when one is live, to its active session.
type Message struct {
	ID          string              `json:"id"`
	RoomID      string              `json:"room_id"`
	SessionID   *string             `json:"session_id,omitempty"`
	UserID      string              `json:"user_id"`
	DisplayName string              `json:"display_name"`
	Type        MessageType         `json:"type"`
	Content     string              `json:"content"`
	IsPinned    bool                `json:"is_pinned"`
	IsDeleted   bool                `json:"is_deleted"`
	Reactions   map[string][]string `json:"reactions,omitempty"` // emoji -> user ids
	CreatedAt   time.Time           `json:"created_at"`
}

// ToggleReaction adds or removes userID under the emoji key. The emoji key is
// dropped entirely when its member set empties. Returns true when the user's
// reaction is present after the toggle.
func (m *Message) ToggleReaction(emoji, userID string) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}

	members := m.Reactions[emoji]
	for i, id := range members {
		if id == userID {
			members = append(members[:i], members[i+1:]...)
			if len(members) == 0 {
				delete(m.Reactions, emoji)
			} else {
				m.Reactions[emoji] = members
			}
			return false
		}
	}

	m.Reactions[emoji] = append(members, userID)
	return true
}
