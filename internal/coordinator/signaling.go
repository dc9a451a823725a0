package coordinator

import (
	"context"
	"encoding/json"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/audit"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// StartBroadcast registers the caller's connection as the room's single
// streaming source and announces it. Only the room creator may broadcast.
func (c *Coordinator) StartBroadcast(ctx context.Context, clientID, userID string, streamConfig json.RawMessage) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.isCreator(userID) {
			return ErrForbidden
		}
		if !st.present(userID) {
			return ErrNotInRoom
		}
		if st.broadcaster != nil {
			return ErrAlreadyBroadcasting
		}

		st.broadcaster = &domain.BroadcasterHandle{
			RoomID:       c.roomID,
			ClientID:     clientID,
			UserID:       userID,
			StreamConfig: streamConfig,
		}

		c.broadcast(&domain.BroadcastEventMessage{
			Type:          domain.MsgTypeBroadcastStarted,
			RoomID:        c.roomID,
			BroadcasterID: userID,
			StreamConfig:  streamConfig,
		})

		audit.Log(ctx, audit.ActionBroadcastStart, c.roomID, userID, "broadcast started")
		return nil
	})
}

// StopBroadcast clears the broadcaster registration. Only the broadcaster
// themselves or a moderator may stop it.
func (c *Coordinator) StopBroadcast(ctx context.Context, userID string) error {
	return c.do(ctx, func() error {
		st := c.st

		if st.broadcaster == nil {
			return nil
		}
		if st.broadcaster.UserID != userID && !st.canModerate(userID) {
			return ErrForbidden
		}

		c.stopBroadcastLocked()
		audit.Log(ctx, audit.ActionBroadcastStop, c.roomID, userID, "broadcast stopped")
		return nil
	})
}

// stopBroadcastLocked clears the handle and announces broadcast-ended. Must
// run on the op goroutine; a no-op when nothing is registered.
func (c *Coordinator) stopBroadcastLocked() {
	st := c.st
	if st.broadcaster == nil {
		return
	}

	ended := &domain.BroadcastEventMessage{
		Type:          domain.MsgTypeBroadcastEnded,
		RoomID:        c.roomID,
		BroadcasterID: st.broadcaster.UserID,
	}
	st.broadcaster = nil
	c.broadcast(ended)
}

// RequestStream tells the broadcaster a viewer wants the stream. Silently
// succeeds when no broadcaster is registered; the viewer learns about
// availability through broadcast-started.
func (c *Coordinator) RequestStream(ctx context.Context, userID string) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.present(userID) {
			return ErrNotInRoom
		}
		if st.broadcaster == nil {
			return nil
		}

		relay := &domain.SignalEnvelope{
			Type:   domain.MsgTypeRequestStream,
			RoomID: c.roomID,
			FromID: userID,
		}
		if err := c.deps.Transport.SendToClient(st.broadcaster.ClientID, relay); err != nil {
			l := pkglog.L()
			l.Debug().Err(err).
				Str(pkglog.FieldRoomID, c.roomID).
				Str(pkglog.FieldClientID, st.broadcaster.ClientID).
				Msg("stream request relay missed broadcaster")
		}
		return nil
	})
}

// RelaySignal forwards an opaque peer-negotiation payload. Targeted signals
// go to one user; untargeted ICE candidates fan out to the whole room.
// Delivery misses are logged and dropped, never errors; peers recover through
// their own negotiation.
func (c *Coordinator) RelaySignal(ctx context.Context, fromID string, env domain.SignalEnvelope) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.present(fromID) {
			return ErrNotInRoom
		}

		env.RoomID = c.roomID
		env.FromID = fromID

		if env.TargetID != "" {
			if !c.deps.Transport.SendToUser(c.roomID, env.TargetID, &env) {
				c.logSignalMiss(env.Type, env.TargetID)
			}
			return nil
		}

		c.broadcast(&env)
		return nil
	})
}

func (c *Coordinator) logSignalMiss(msgType, targetID string) {
	l := pkglog.L()
	l.Debug().
		Str(pkglog.FieldRoomID, c.roomID).
		Str(pkglog.FieldEvent, msgType).
		Str(pkglog.FieldTargetID, targetID).
		Msg("signal relay target unavailable")
}
