package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/audit"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// StartSession opens a live session. Only the room creator may start one,
// and at most one non-ended session exists per room.
func (c *Coordinator) StartSession(ctx context.Context, userID string) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.isCreator(userID) {
			return ErrForbidden
		}
		if st.session != nil {
			return ErrInvalidSessionState
		}

		now := c.now()
		session := &domain.LiveSession{
			ID:               uuid.New().String(),
			RoomID:           c.roomID,
			Status:           domain.SessionActive,
			StartedAt:        now,
			PeakParticipants: st.room.ParticipantCount,
		}
		st.session = session
		st.room.IsLive = true
		st.room.CurrentSessionID = &session.ID

		c.broadcast(&domain.SessionEventMessage{
			Type:      domain.MsgTypeSessionStarted,
			RoomID:    c.roomID,
			SessionID: session.ID,
			Timestamp: now,
		})
		c.systemMessage(fmt.Sprintf("%s started a live session", st.displayNameOf(userID)))

		c.deps.Persist.SaveSession(*session)
		c.commitRoom()
		audit.Log(ctx, audit.ActionSessionStart, c.roomID, userID, "session started")
		return nil
	})
}

// PauseSession suspends an active session. Only active sessions pause.
func (c *Coordinator) PauseSession(ctx context.Context, userID string) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.isCreator(userID) {
			return ErrForbidden
		}
		if st.session == nil {
			return ErrSessionNotFound
		}
		if st.session.Status != domain.SessionActive {
			return ErrInvalidSessionState
		}

		st.session.Status = domain.SessionPaused

		c.broadcast(&domain.SessionEventMessage{
			Type:      domain.MsgTypeSessionPaused,
			RoomID:    c.roomID,
			SessionID: st.session.ID,
			Timestamp: c.now(),
		})

		c.deps.Persist.SaveSession(*st.session)
		c.saveSnapshot()
		audit.Log(ctx, audit.ActionSessionPause, c.roomID, userID, "session paused")
		return nil
	})
}

// ResumeSession reactivates a paused session.
func (c *Coordinator) ResumeSession(ctx context.Context, userID string) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.isCreator(userID) {
			return ErrForbidden
		}
		if st.session == nil {
			return ErrSessionNotFound
		}
		if st.session.Status != domain.SessionPaused {
			return ErrInvalidSessionState
		}

		st.session.Status = domain.SessionActive

		c.broadcast(&domain.SessionEventMessage{
			Type:      domain.MsgTypeSessionResumed,
			RoomID:    c.roomID,
			SessionID: st.session.ID,
			Timestamp: c.now(),
		})

		c.deps.Persist.SaveSession(*st.session)
		c.saveSnapshot()
		audit.Log(ctx, audit.ActionSessionResume, c.roomID, userID, "session resumed")
		return nil
	})
}

// EndSession closes the session from either active or paused, computes the
// final stats and broadcasts them with the ended event.
func (c *Coordinator) EndSession(ctx context.Context, userID string) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.isCreator(userID) {
			return ErrForbidden
		}
		if st.session == nil {
			return ErrSessionNotFound
		}

		now := c.now()
		session := st.session
		session.Status = domain.SessionEnded
		session.EndedAt = &now
		session.Duration = int64(now.Sub(session.StartedAt).Seconds())

		stats := domain.SessionStats{
			SessionID:        session.ID,
			Duration:         session.Duration,
			PeakParticipants: session.PeakParticipants,
			TotalMessages:    session.TotalMessages,
		}

		st.session = nil
		st.room.IsLive = false
		st.room.CurrentSessionID = nil
		if st.broadcaster != nil {
			c.stopBroadcastLocked()
		}

		c.broadcast(&domain.SessionEventMessage{
			Type:      domain.MsgTypeSessionEnded,
			RoomID:    c.roomID,
			SessionID: session.ID,
			Stats:     &stats,
			Timestamp: now,
		})
		c.systemMessage("the live session has ended")

		c.deps.Persist.SaveSession(*session)
		c.commitRoom()
		c.produceSessionEnded(stats)
		audit.Log(ctx, audit.ActionSessionEnd, c.roomID, userID, "session ended")
		return nil
	})
}

func (c *Coordinator) produceSessionEnded(stats domain.SessionStats) {
	if c.deps.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.deps.Events.ProduceSessionEnded(ctx, c.roomID, stats); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).
			Str(pkglog.FieldRoomID, c.roomID).
			Str(pkglog.FieldSessionID, stats.SessionID).
			Msg("failed to publish session-ended event")
	}
}
