package coordinator

import (
	"sort"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
)

// maxHistory bounds the in-memory message index per room.
const maxHistory = 500

// roomState is the presence store for one room. It is owned exclusively by
// the room's coordinator goroutine; nothing outside the op queue touches it.
type roomState struct {
	room         domain.Room
	participants map[string]*domain.Participant // userID -> record, including inactive
	connections  map[string]map[string]struct{} // userID -> set of client ids
	session      *domain.LiveSession
	broadcaster  *domain.BroadcasterHandle
	pinnedID     string
	messages     map[string]*domain.Message
	order        []string // message ids, arrival order
}

func newRoomState(room domain.Room) *roomState {
	return &roomState{
		room:         room,
		participants: make(map[string]*domain.Participant),
		connections:  make(map[string]map[string]struct{}),
		messages:     make(map[string]*domain.Message),
	}
}

// present reports whether the user currently has at least one connection.
func (st *roomState) present(userID string) bool {
	return len(st.connections[userID]) > 0
}

// addConnection registers a connection for the user and reports whether this
// made the user present (first connection).
func (st *roomState) addConnection(userID, clientID string) bool {
	conns, ok := st.connections[userID]
	if !ok {
		conns = make(map[string]struct{})
		st.connections[userID] = conns
	}
	first := len(conns) == 0
	conns[clientID] = struct{}{}
	return first
}

// removeConnection drops one connection and reports whether the user is now
// absent (last connection gone).
func (st *roomState) removeConnection(userID, clientID string) bool {
	conns, ok := st.connections[userID]
	if !ok {
		return false
	}
	if _, ok := conns[clientID]; !ok {
		return false
	}
	delete(conns, clientID)
	if len(conns) == 0 {
		delete(st.connections, userID)
		return true
	}
	return false
}

// dropUser removes every connection record for the user.
func (st *roomState) dropUser(userID string) {
	delete(st.connections, userID)
}

// userForConnection finds which user owns a connection, if any.
func (st *roomState) userForConnection(clientID string) (string, bool) {
	for userID, conns := range st.connections {
		if _, ok := conns[clientID]; ok {
			return userID, true
		}
	}
	return "", false
}

// roleOf resolves the effective role, treating the room creator as creator
// even without a participant record.
func (st *roomState) roleOf(userID string) domain.Role {
	if userID == st.room.CreatorID {
		return domain.RoleCreator
	}
	if p, ok := st.participants[userID]; ok {
		return p.Role
	}
	return domain.RoleParticipant
}

// displayNameOf falls back to the user id when no record exists.
func (st *roomState) displayNameOf(userID string) string {
	if p, ok := st.participants[userID]; ok && p.DisplayName != "" {
		return p.DisplayName
	}
	return userID
}

// isCreator reports whether the user owns the room.
func (st *roomState) isCreator(userID string) bool {
	return userID == st.room.CreatorID
}

// canModerate reports whether the user may issue moderation actions.
func (st *roomState) canModerate(userID string) bool {
	role := st.roleOf(userID)
	return role == domain.RoleCreator || role == domain.RoleModerator
}

// addMessage indexes a message, evicting the oldest non-pinned entries past
// the history cap.
func (st *roomState) addMessage(m *domain.Message) {
	st.messages[m.ID] = m
	st.order = append(st.order, m.ID)

	for len(st.order) > maxHistory {
		oldest := st.order[0]
		if oldest == st.pinnedID {
			// Keep the pinned message resident; rotate it to the back.
			st.order = append(st.order[1:], oldest)
			continue
		}
		st.order = st.order[1:]
		delete(st.messages, oldest)
	}
}

// participantInfos returns the present members sorted by join time.
func (st *roomState) participantInfos() []domain.ParticipantInfo {
	var present []*domain.Participant
	for userID := range st.connections {
		if p, ok := st.participants[userID]; ok && p.IsActive {
			present = append(present, p)
		}
	}
	sort.Slice(present, func(i, j int) bool {
		return present[i].JoinedAt.Before(present[j].JoinedAt)
	})

	infos := make([]domain.ParticipantInfo, len(present))
	for i, p := range present {
		infos[i] = domain.ParticipantInfo{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Role:        p.Role,
			Mood:        p.Mood,
		}
	}
	return infos
}

// history returns up to limit messages in arrival order.
func (st *roomState) history(limit int) []domain.Message {
	if limit <= 0 || limit > len(st.order) {
		limit = len(st.order)
	}

	out := make([]domain.Message, 0, limit)
	for _, id := range st.order[len(st.order)-limit:] {
		if m, ok := st.messages[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

// idle reports whether the coordinator can retire: nobody present and no
// session in flight.
func (st *roomState) idle() bool {
	return len(st.connections) == 0 && st.session == nil && st.broadcaster == nil
}
