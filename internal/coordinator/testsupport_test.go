package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/presence"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/store"
)

// fakeClock is an injectable time source the tests can advance.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sentMessage is one fan-out recorded by the fake transport.
type sentMessage struct {
	Kind     string // "broadcast", "client", "user"
	RoomID   string
	ClientID string
	UserID   string
	Payload  interface{}
}

// fakeTransport records fan-out instead of delivering it.
type fakeTransport struct {
	mu           sync.Mutex
	sent         []sentMessage
	joined       map[string][]string // clientID -> room ids
	disconnected []string            // user ids forcibly dropped
	missUsers    map[string]bool     // user ids SendToUser reports unreachable
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		joined:    make(map[string][]string),
		missUsers: make(map[string]bool),
	}
}

func (t *fakeTransport) JoinRoom(clientID, roomID string) {
	t.mu.Lock()
	t.joined[clientID] = append(t.joined[clientID], roomID)
	t.mu.Unlock()
}

func (t *fakeTransport) LeaveRoom(clientID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rooms := t.joined[clientID]
	for i, id := range rooms {
		if id == roomID {
			t.joined[clientID] = append(rooms[:i], rooms[i+1:]...)
			return
		}
	}
}

func (t *fakeTransport) RoomsOf(clientID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.joined[clientID]...)
}

func (t *fakeTransport) BroadcastToRoom(roomID string, message interface{}, exclude string) error {
	t.mu.Lock()
	t.sent = append(t.sent, sentMessage{Kind: "broadcast", RoomID: roomID, Payload: message})
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) SendToClient(clientID string, message interface{}) error {
	t.mu.Lock()
	t.sent = append(t.sent, sentMessage{Kind: "client", ClientID: clientID, Payload: message})
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) SendToUser(roomID, userID string, message interface{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.missUsers[userID] {
		return false
	}
	t.sent = append(t.sent, sentMessage{Kind: "user", RoomID: roomID, UserID: userID, Payload: message})
	return true
}

func (t *fakeTransport) DisconnectUser(roomID, userID string) {
	t.mu.Lock()
	t.disconnected = append(t.disconnected, userID)
	t.mu.Unlock()
}

// byType returns the recorded payloads whose wire type matches.
func (t *fakeTransport) byType(msgType string) []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []sentMessage
	for _, m := range t.sent {
		if wireType(m.Payload) == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (t *fakeTransport) reset() {
	t.mu.Lock()
	t.sent = nil
	t.mu.Unlock()
}

func wireType(payload interface{}) string {
	switch m := payload.(type) {
	case *domain.UserJoinedMessage:
		return m.Type
	case *domain.UserLeftMessage:
		return m.Type
	case *domain.ParticipantsUpdatedMessage:
		return m.Type
	case *domain.NewMessageMessage:
		return m.Type
	case *domain.UserTypingMessage:
		return m.Type
	case *domain.ReactionUpdatedMessage:
		return m.Type
	case *domain.SessionEventMessage:
		return m.Type
	case *domain.UserModeratedMessage:
		return m.Type
	case *domain.ModerationNoticeMessage:
		return m.Type
	case *domain.MessageDeletedMessage:
		return m.Type
	case *domain.MessagePinnedMessage:
		return m.Type
	case *domain.BroadcastEventMessage:
		return m.Type
	case *domain.SignalEnvelope:
		return m.Type
	case *domain.ErrorMessage:
		return m.Type
	default:
		return ""
	}
}

// fakePersister records writes in memory.
type fakePersister struct {
	mu           sync.Mutex
	rooms        []domain.Room
	participants []domain.Participant
	sessions     []domain.LiveSession
	messages     []domain.Message
	modLog       []domain.ModerationLogEntry
}

func newFakePersister() *fakePersister { return &fakePersister{} }

func (p *fakePersister) SaveRoom(room domain.Room) {
	p.mu.Lock()
	p.rooms = append(p.rooms, room)
	p.mu.Unlock()
}

func (p *fakePersister) SaveParticipant(pt domain.Participant) {
	p.mu.Lock()
	p.participants = append(p.participants, pt)
	p.mu.Unlock()
}

func (p *fakePersister) SaveSession(s domain.LiveSession) {
	p.mu.Lock()
	p.sessions = append(p.sessions, s)
	p.mu.Unlock()
}

func (p *fakePersister) SaveMessage(m domain.Message) {
	p.mu.Lock()
	p.messages = append(p.messages, m)
	p.mu.Unlock()
}

func (p *fakePersister) AppendModerationLog(e domain.ModerationLogEntry) {
	p.mu.Lock()
	p.modLog = append(p.modLog, e)
	p.mu.Unlock()
}

func (p *fakePersister) lastParticipant(userID string) (domain.Participant, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.participants) - 1; i >= 0; i-- {
		if p.participants[i].UserID == userID {
			return p.participants[i], true
		}
	}
	return domain.Participant{}, false
}

// fakeSnapshots is an in-memory snapshot store.
type fakeSnapshots struct {
	mu    sync.Mutex
	snaps map[string]presence.Snapshot
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{snaps: make(map[string]presence.Snapshot)}
}

func (s *fakeSnapshots) Save(ctx context.Context, snap presence.Snapshot) error {
	s.mu.Lock()
	s.snaps[snap.RoomID] = snap
	s.mu.Unlock()
	return nil
}

func (s *fakeSnapshots) Load(ctx context.Context, roomID string) (*presence.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[roomID]
	if !ok {
		return nil, presence.ErrNoSnapshot
	}
	return &snap, nil
}

func (s *fakeSnapshots) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	delete(s.snaps, roomID)
	s.mu.Unlock()
	return nil
}

// fakeReader serves recovery reads from fixed fixtures.
type fakeReader struct {
	mu           sync.Mutex
	rooms        map[string]domain.Room
	participants map[string][]domain.Participant
	messages     map[string][]domain.Message
	roomReads    int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		rooms:        make(map[string]domain.Room),
		participants: make(map[string][]domain.Participant),
		messages:     make(map[string][]domain.Message),
	}
}

func (r *fakeReader) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomReads++
	room, ok := r.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &room, nil
}

func (r *fakeReader) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Participant(nil), r.participants[roomID]...), nil
}

func (r *fakeReader) ListRecentMessages(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[roomID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.Message(nil), msgs...), nil
}

func testRoom(id, creatorID string) domain.Room {
	return domain.Room{
		ID:              id,
		CreatorID:       creatorID,
		Title:           "evening wind-down",
		IsActive:        true,
		ChatEnabled:     true,
		MaxParticipants: 10,
	}
}

// testCoordinator builds a coordinator over fakes, without registry
// retirement.
func testCoordinator(room domain.Room) (*Coordinator, *fakeTransport, *fakePersister, *fakeClock) {
	transport := newFakeTransport()
	persist := newFakePersister()
	clock := newFakeClock()

	c := newCoordinator(newRoomState(room), Deps{
		Transport: transport,
		Persist:   persist,
		Now:       clock.Now,
	})
	return c, transport, persist, clock
}

func join(c *Coordinator, clientID, userID, displayName string) error {
	return c.Join(context.Background(), clientID, domain.Identity{UserID: userID, DisplayName: displayName}, "")
}

// promote flips a joined participant to moderator through the op queue, the
// way a recovered role assignment would surface.
func promote(c *Coordinator, userID string) error {
	return c.do(context.Background(), func() error {
		p, ok := c.st.participants[userID]
		if !ok {
			return ErrNotInRoom
		}
		p.Role = domain.RoleModerator
		return nil
	})
}
