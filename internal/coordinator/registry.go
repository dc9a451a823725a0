package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/presence"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/store"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// RoomReader supplies the synchronous reads that seed a coordinator.
type RoomReader interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
	ListRecentMessages(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}

// Registry owns the room coordinators. Coordinators are created lazily on
// first use, seeded from the store and the presence snapshot, and retire
// themselves when their room drains.
type Registry struct {
	reader RoomReader
	deps   Deps

	mu    sync.RWMutex
	rooms map[string]*Coordinator
	sf    singleflight.Group
}

// NewRegistry wires the registry. deps.Snapshots and deps.Events may be nil.
func NewRegistry(reader RoomReader, deps Deps) *Registry {
	r := &Registry{
		reader: reader,
		rooms:  make(map[string]*Coordinator),
	}
	deps.onRetire = r.remove
	r.deps = deps
	return r
}

func (r *Registry) remove(roomID string) {
	r.mu.Lock()
	delete(r.rooms, roomID)
	r.mu.Unlock()
}

// peek returns an existing coordinator without creating one.
func (r *Registry) peek(roomID string) (*Coordinator, bool) {
	r.mu.RLock()
	c, ok := r.rooms[roomID]
	r.mu.RUnlock()
	return c, ok
}

// coordinatorFor returns the room's coordinator, recovering state from the
// store on first use. Concurrent first uses share one recovery.
func (r *Registry) coordinatorFor(ctx context.Context, roomID string) (*Coordinator, error) {
	if c, ok := r.peek(roomID); ok {
		return c, nil
	}

	v, err, _ := r.sf.Do(roomID, func() (interface{}, error) {
		if c, ok := r.peek(roomID); ok {
			return c, nil
		}

		st, err := r.recoverState(ctx, roomID)
		if err != nil {
			return nil, err
		}

		c := newCoordinator(st, r.deps)
		r.mu.Lock()
		r.rooms[roomID] = c
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Coordinator), nil
}

// recoverState rebuilds room state from the relational store, folding in the
// presence snapshot for session continuity. Connection state always starts
// empty; live connections do not survive a coordinator restart.
func (r *Registry) recoverState(ctx context.Context, roomID string) (*roomState, error) {
	room, err := r.reader.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	st := newRoomState(*room)
	st.room.ParticipantCount = 0
	if st.room.MaxParticipants <= 0 {
		st.room.MaxParticipants = r.deps.DefaultMaxParticipants
		if st.room.MaxParticipants <= 0 {
			st.room.MaxParticipants = 100
		}
	}

	participants, err := r.reader.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for i := range participants {
		p := participants[i]
		p.IsActive = false
		st.participants[p.UserID] = &p
	}

	messages, err := r.reader.ListRecentMessages(ctx, roomID, maxHistory)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		m := messages[i]
		st.addMessage(&m)
		if m.IsPinned && !m.IsDeleted {
			st.pinnedID = m.ID
		}
	}

	r.foldSnapshot(ctx, st)
	return st, nil
}

// foldSnapshot carries a live session across a coordinator restart. The
// session's start time is lost with the old coordinator, so recovered
// sessions under-report duration.
func (r *Registry) foldSnapshot(ctx context.Context, st *roomState) {
	if r.deps.Snapshots == nil {
		return
	}

	snap, err := r.deps.Snapshots.Load(ctx, st.room.ID)
	if err != nil {
		if !errors.Is(err, presence.ErrNoSnapshot) {
			l := pkglog.L()
			l.Warn().Err(err).Str(pkglog.FieldRoomID, st.room.ID).Msg("presence snapshot load failed")
		}
		return
	}

	if snap.SessionID == "" {
		st.room.IsLive = false
		st.room.CurrentSessionID = nil
		return
	}

	now := time.Now()
	if r.deps.Now != nil {
		now = r.deps.Now()
	}
	st.session = &domain.LiveSession{
		ID:               snap.SessionID,
		RoomID:           st.room.ID,
		Status:           domain.SessionActive,
		StartedAt:        now,
		PeakParticipants: snap.PeakParticipants,
	}
	st.room.IsLive = snap.IsLive
	st.room.CurrentSessionID = &st.session.ID

	l := pkglog.L()
	l.Info().
		Str(pkglog.FieldRoomID, st.room.ID).
		Str(pkglog.FieldSessionID, snap.SessionID).
		Msg("recovered live session from presence snapshot")
}

// retry reruns fn when the coordinator retired between lookup and dispatch.
func (r *Registry) retry(ctx context.Context, roomID string, fn func(c *Coordinator) error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		var c *Coordinator
		c, err = r.coordinatorFor(ctx, roomID)
		if err != nil {
			return err
		}
		err = fn(c)
		if !errors.Is(err, errRetired) {
			return err
		}
	}
	return err
}

// Join admits a user's connection into a room.
func (r *Registry) Join(ctx context.Context, roomID, clientID string, id domain.Identity, mood string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.Join(ctx, clientID, id, mood)
	})
}

// Leave removes a user from a room. Unknown rooms and absent users succeed.
func (r *Registry) Leave(ctx context.Context, roomID, userID string) error {
	c, ok := r.peek(roomID)
	if !ok {
		return nil
	}
	err := c.Leave(ctx, userID)
	if errors.Is(err, errRetired) {
		return nil
	}
	return err
}

// HandleDisconnect sweeps a dropped connection out of every room it had
// joined. Wired as the hub's disconnect handler.
func (r *Registry) HandleDisconnect(ctx context.Context, clientID string) {
	for _, roomID := range r.deps.Transport.RoomsOf(clientID) {
		c, ok := r.peek(roomID)
		if !ok {
			continue
		}
		if err := c.Disconnect(ctx, clientID); err != nil && !errors.Is(err, errRetired) {
			l := pkglog.L()
			l.Warn().Err(err).
				Str(pkglog.FieldRoomID, roomID).
				Str(pkglog.FieldClientID, clientID).
				Msg("disconnect sweep failed")
		}
	}
}

// SendMessage relays a chat message through the room's coordinator.
func (r *Registry) SendMessage(ctx context.Context, roomID, userID, content string) (*domain.Message, error) {
	var out *domain.Message
	err := r.retry(ctx, roomID, func(c *Coordinator) error {
		m, err := c.SendMessage(ctx, userID, content)
		out = m
		return err
	})
	return out, err
}

// Typing relays a typing indicator.
func (r *Registry) Typing(ctx context.Context, roomID, userID string, isTyping bool) error {
	c, ok := r.peek(roomID)
	if !ok {
		return ErrNotInRoom
	}
	return c.Typing(ctx, userID, isTyping)
}

// React toggles a reaction on a message.
func (r *Registry) React(ctx context.Context, roomID, userID, messageID, emoji string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.React(ctx, userID, messageID, emoji)
	})
}

// PinMessage pins a message, replacing any previous pin.
func (r *Registry) PinMessage(ctx context.Context, roomID, userID, messageID string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.PinMessage(ctx, userID, messageID)
	})
}

// DeleteMessage soft-deletes a message.
func (r *Registry) DeleteMessage(ctx context.Context, roomID, userID, messageID string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.DeleteMessage(ctx, userID, messageID)
	})
}

// Moderate applies a moderation action in a room.
func (r *Registry) Moderate(ctx context.Context, roomID string, req ModerateRequest) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.Moderate(ctx, req)
	})
}

// StartSession opens a live session in a room.
func (r *Registry) StartSession(ctx context.Context, roomID, userID string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.StartSession(ctx, userID)
	})
}

// PauseSession suspends a room's active session.
func (r *Registry) PauseSession(ctx context.Context, roomID, userID string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.PauseSession(ctx, userID)
	})
}

// ResumeSession reactivates a room's paused session.
func (r *Registry) ResumeSession(ctx context.Context, roomID, userID string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.ResumeSession(ctx, userID)
	})
}

// EndSession closes a room's session and publishes its stats.
func (r *Registry) EndSession(ctx context.Context, roomID, userID string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.EndSession(ctx, userID)
	})
}

// StartBroadcast registers a room's streaming source.
func (r *Registry) StartBroadcast(ctx context.Context, roomID, clientID, userID string, streamConfig json.RawMessage) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.StartBroadcast(ctx, clientID, userID, streamConfig)
	})
}

// StopBroadcast clears a room's streaming source.
func (r *Registry) StopBroadcast(ctx context.Context, roomID, userID string) error {
	c, ok := r.peek(roomID)
	if !ok {
		return nil
	}
	err := c.StopBroadcast(ctx, userID)
	if errors.Is(err, errRetired) {
		return nil
	}
	return err
}

// RequestStream asks a room's broadcaster for the stream.
func (r *Registry) RequestStream(ctx context.Context, roomID, userID string) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.RequestStream(ctx, userID)
	})
}

// RelaySignal forwards a peer-negotiation payload within a room.
func (r *Registry) RelaySignal(ctx context.Context, roomID, fromID string, env domain.SignalEnvelope) error {
	return r.retry(ctx, roomID, func(c *Coordinator) error {
		return c.RelaySignal(ctx, fromID, env)
	})
}

// Presence returns a consistent read of a room's live state.
func (r *Registry) Presence(ctx context.Context, roomID string) (*RoomPresence, error) {
	var out *RoomPresence
	err := r.retry(ctx, roomID, func(c *Coordinator) error {
		p, err := c.Presence(ctx)
		out = p
		return err
	})
	return out, err
}

// History returns up to limit recent messages from a room.
func (r *Registry) History(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := r.retry(ctx, roomID, func(c *Coordinator) error {
		h, err := c.History(ctx, limit)
		out = h
		return err
	})
	return out, err
}
