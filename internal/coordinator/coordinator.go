package coordinator

import (
	"context"
	"time"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/audit"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/kafka"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/presence"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// Transport is the connection substrate the coordinator drives for fan-out.
// Implemented by the websocket hub.
type Transport interface {
	JoinRoom(clientID, roomID string)
	LeaveRoom(clientID, roomID string)
	RoomsOf(clientID string) []string
	BroadcastToRoom(roomID string, message interface{}, exclude string) error
	SendToClient(clientID string, message interface{}) error
	SendToUser(roomID, userID string, message interface{}) bool
	DisconnectUser(roomID, userID string)
}

// Persister receives fire-and-forget durable writes after each in-memory
// commit. Implemented by store.AsyncWriter.
type Persister interface {
	SaveRoom(room domain.Room)
	SaveParticipant(p domain.Participant)
	SaveSession(s domain.LiveSession)
	SaveMessage(m domain.Message)
	AppendModerationLog(e domain.ModerationLogEntry)
}

// Snapshotter keeps the room presence snapshot used for crash recovery.
type Snapshotter interface {
	Save(ctx context.Context, snap presence.Snapshot) error
	Load(ctx context.Context, roomID string) (*presence.Snapshot, error)
	Delete(ctx context.Context, roomID string) error
}

// Deps are the collaborators a coordinator needs.
type Deps struct {
	Transport Transport
	Persist   Persister
	Events    kafka.EventProducer // optional
	Snapshots Snapshotter         // optional
	Now       func() time.Time
	QueueSize int
	// DefaultMaxParticipants applies to room rows that carry no cap.
	DefaultMaxParticipants int
	onRetire               func(roomID string)
}

// Coordinator is the single writer for one room. Every operation is queued
// and processed strictly one at a time, converting many concurrent mutators
// into one totally ordered sequence.
type Coordinator struct {
	roomID string
	deps   Deps
	st     *roomState
	ops    chan func()
	closed chan struct{}
}

func newCoordinator(st *roomState, deps Deps) *Coordinator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}

	c := &Coordinator{
		roomID: st.room.ID,
		deps:   deps,
		st:     st,
		ops:    make(chan func(), queueSize),
		closed: make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Coordinator) run() {
	for {
		select {
		case op := <-c.ops:
			op()
			if c.st.idle() && c.deps.onRetire != nil {
				c.retire()
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Coordinator) retire() {
	c.deps.onRetire(c.roomID)
	close(c.closed)

	// Refuse queued senders; do() observed closed or gets its op dropped here.
	for {
		select {
		case <-c.ops:
		default:
			if c.deps.Snapshots != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := c.deps.Snapshots.Delete(ctx, c.roomID); err != nil {
					l := pkglog.L()
					l.Warn().Err(err).Str(pkglog.FieldRoomID, c.roomID).Msg("failed to drop presence snapshot")
				}
			}
			l := pkglog.L()
			l.Debug().Str(pkglog.FieldRoomID, c.roomID).Msg("room coordinator retired")
			return
		}
	}
}

// do queues fn onto the room's serialized op queue and waits for its result.
// The caller only ever waits on its own room's queue.
func (c *Coordinator) do(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)

	select {
	case c.ops <- func() { errCh <- fn() }:
	case <-c.closed:
		return errRetired
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errCh:
		return err
	case <-c.closed:
		return errRetired
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) now() time.Time {
	return c.deps.Now()
}

// commitRoom persists the room row and refreshes the presence snapshot after
// an in-memory commit. Both are asynchronous to the op queue.
func (c *Coordinator) commitRoom() {
	c.deps.Persist.SaveRoom(c.st.room)
	c.saveSnapshot()
}

func (c *Coordinator) saveSnapshot() {
	if c.deps.Snapshots == nil {
		return
	}

	snap := presence.Snapshot{
		RoomID:           c.roomID,
		ParticipantCount: c.st.room.ParticipantCount,
		IsLive:           c.st.room.IsLive,
	}
	if c.st.session != nil {
		snap.SessionID = c.st.session.ID
		snap.PeakParticipants = c.st.session.PeakParticipants
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.deps.Snapshots.Save(ctx, snap); err != nil {
			l := pkglog.L()
			l.Warn().Err(err).Str(pkglog.FieldRoomID, snap.RoomID).Msg("failed to save presence snapshot")
		}
	}()
}

func (c *Coordinator) broadcast(message interface{}) {
	if err := c.deps.Transport.BroadcastToRoom(c.roomID, message, ""); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldRoomID, c.roomID).Msg("room fan-out failed")
	}
}

func (c *Coordinator) broadcastParticipants() {
	c.broadcast(&domain.ParticipantsUpdatedMessage{
		Type:             domain.MsgTypeParticipantsUpdated,
		RoomID:           c.roomID,
		ParticipantCount: c.st.room.ParticipantCount,
		Participants:     c.st.participantInfos(),
	})
}

// Join admits a user's connection into the room.
func (c *Coordinator) Join(ctx context.Context, clientID string, id domain.Identity, mood string) error {
	return c.do(ctx, func() error {
		st := c.st
		now := c.now()

		if !st.room.IsActive {
			return ErrRoomInactive
		}

		alreadyPresent := st.present(id.UserID)
		if !alreadyPresent && st.room.ParticipantCount >= st.room.MaxParticipants {
			return ErrRoomFull
		}

		p, known := st.participants[id.UserID]
		if known && p.BanActive(now) {
			return ErrBanned
		}

		if !known {
			role := domain.RoleParticipant
			if id.UserID == st.room.CreatorID {
				role = domain.RoleCreator
			}
			p = &domain.Participant{
				RoomID: c.roomID,
				UserID: id.UserID,
				Role:   role,
			}
			st.participants[id.UserID] = p
		}

		p.DisplayName = id.DisplayName
		if mood != "" {
			p.Mood = mood
		}

		st.addConnection(id.UserID, clientID)
		c.deps.Transport.JoinRoom(clientID, c.roomID)

		if alreadyPresent {
			// Second connection of the same user; membership is unchanged.
			return nil
		}

		p.IsActive = true
		p.JoinedAt = now
		p.LeftAt = nil

		st.room.ParticipantCount++
		if st.session != nil && st.room.ParticipantCount > st.session.PeakParticipants {
			st.session.PeakParticipants = st.room.ParticipantCount
			c.deps.Persist.SaveSession(*st.session)
		}

		c.broadcast(&domain.UserJoinedMessage{
			Type:        domain.MsgTypeUserJoined,
			RoomID:      c.roomID,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Mood:        p.Mood,
		})
		c.broadcastParticipants()

		c.deps.Persist.SaveParticipant(*p)
		c.commitRoom()
		audit.Log(ctx, audit.ActionJoinRoom, c.roomID, id.UserID, "user joined room")
		return nil
	})
}

// Leave removes a user from the room. Leaving twice is a no-op success.
func (c *Coordinator) Leave(ctx context.Context, userID string) error {
	return c.do(ctx, func() error {
		if c.leaveLocked(ctx, userID) {
			audit.Log(ctx, audit.ActionLeaveRoom, c.roomID, userID, "user left room")
		}
		return nil
	})
}

// Disconnect applies leave semantics for one connection. Invoked by the
// registry's disconnect sweep; idempotent.
func (c *Coordinator) Disconnect(ctx context.Context, clientID string) error {
	return c.do(ctx, func() error {
		st := c.st

		userID, ok := st.userForConnection(clientID)
		if !ok {
			return nil
		}

		if st.broadcaster != nil && st.broadcaster.ClientID == clientID {
			c.stopBroadcastLocked()
		}

		if last := st.removeConnection(userID, clientID); !last {
			c.deps.Transport.LeaveRoom(clientID, c.roomID)
			return nil
		}

		c.finishLeave(userID)
		audit.Log(ctx, audit.ActionDisconnect, c.roomID, userID, "user disconnected")
		return nil
	})
}

// leaveLocked unwinds a user's membership. Returns false when the user was
// not present. Must run on the op goroutine.
func (c *Coordinator) leaveLocked(ctx context.Context, userID string) bool {
	st := c.st
	if !st.present(userID) {
		return false
	}

	if st.broadcaster != nil && st.broadcaster.UserID == userID {
		c.stopBroadcastLocked()
	}

	for clientID := range st.connections[userID] {
		c.deps.Transport.LeaveRoom(clientID, c.roomID)
	}
	st.dropUser(userID)
	c.finishLeave(userID)
	return true
}

// finishLeave flips the participant inactive, accumulates time spent and
// emits the departure events. The connection records are already gone.
func (c *Coordinator) finishLeave(userID string) {
	st := c.st
	now := c.now()

	p, ok := st.participants[userID]
	if !ok {
		return
	}

	p.IsActive = false
	left := now
	p.LeftAt = &left
	if elapsed := int64(now.Sub(p.JoinedAt).Seconds()); elapsed > 0 {
		p.TotalTimeSpent += elapsed
	}

	if st.room.ParticipantCount > 0 {
		st.room.ParticipantCount--
	}

	c.broadcast(&domain.UserLeftMessage{
		Type:        domain.MsgTypeUserLeft,
		RoomID:      c.roomID,
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
	})
	c.broadcastParticipants()

	c.deps.Persist.SaveParticipant(*p)
	c.commitRoom()
}

// Typing relays a typing indicator. Never persisted.
func (c *Coordinator) Typing(ctx context.Context, userID string, isTyping bool) error {
	return c.do(ctx, func() error {
		p, ok := c.st.participants[userID]
		if !ok || !c.st.present(userID) {
			return ErrNotInRoom
		}

		c.broadcast(&domain.UserTypingMessage{
			Type:        domain.MsgTypeUserTyping,
			RoomID:      c.roomID,
			UserID:      userID,
			DisplayName: p.DisplayName,
			IsTyping:    isTyping,
		})
		return nil
	})
}

// RoomPresence is the read-model served over HTTP.
type RoomPresence struct {
	Room            domain.Room              `json:"room"`
	Participants    []domain.ParticipantInfo `json:"participants"`
	SessionID       string                   `json:"session_id,omitempty"`
	PinnedMessageID string                   `json:"pinned_message_id,omitempty"`
	Broadcasting    bool                     `json:"broadcasting"`
}

// Presence returns a consistent view of the room, serialized with writes.
func (c *Coordinator) Presence(ctx context.Context) (*RoomPresence, error) {
	var out *RoomPresence
	err := c.do(ctx, func() error {
		out = &RoomPresence{
			Room:            c.st.room,
			Participants:    c.st.participantInfos(),
			PinnedMessageID: c.st.pinnedID,
			Broadcasting:    c.st.broadcaster != nil,
		}
		if c.st.session != nil {
			out.SessionID = c.st.session.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History returns up to limit recent messages in room order.
func (c *Coordinator) History(ctx context.Context, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := c.do(ctx, func() error {
		out = c.st.history(limit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
