package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/audit"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// ModerateRequest is one moderation decision against a target user.
type ModerateRequest struct {
	ModeratorID     string
	TargetID        string
	Action          domain.ModerationAction
	Reason          string
	DurationMinutes int // 0 means indefinite for mute and ban
}

// Moderate applies a moderation action. All actions are serialized on the op
// queue, so a ban and an unban issued concurrently resolve in a definite
// order. Enforcement state lives on the participant record; the log entry is
// audit-only.
func (c *Coordinator) Moderate(ctx context.Context, req ModerateRequest) error {
	if !req.Action.Valid() {
		return ErrInvalidAction
	}

	return c.do(ctx, func() error {
		st := c.st
		now := c.now()

		if !st.canModerate(req.ModeratorID) {
			return ErrForbidden
		}
		if req.TargetID == st.room.CreatorID {
			return ErrForbidden
		}

		target, ok := st.participants[req.TargetID]
		if !ok {
			if req.Action != domain.ActionBan {
				return ErrNotInRoom
			}
			// Pre-emptive ban of a user who never joined still needs a record
			// for the join-time check.
			target = &domain.Participant{
				RoomID: c.roomID,
				UserID: req.TargetID,
				Role:   domain.RoleParticipant,
			}
			st.participants[req.TargetID] = target
		}

		var expiresAt *time.Time
		if req.DurationMinutes > 0 {
			t := now.Add(time.Duration(req.DurationMinutes) * time.Minute)
			expiresAt = &t
		}

		switch req.Action {
		case domain.ActionMute:
			target.IsMuted = true
			target.MutedUntil = expiresAt
		case domain.ActionUnmute:
			target.IsMuted = false
			target.MutedUntil = nil
		case domain.ActionBan:
			target.IsBanned = true
			target.BannedUntil = expiresAt
		case domain.ActionUnban:
			target.IsBanned = false
			target.BannedUntil = nil
		case domain.ActionKick:
			// Removal below; no persistent flag.
		}

		entry := domain.ModerationLogEntry{
			ID:              uuid.New().String(),
			RoomID:          c.roomID,
			ModeratorID:     req.ModeratorID,
			TargetID:        req.TargetID,
			Action:          req.Action,
			Reason:          req.Reason,
			DurationMinutes: req.DurationMinutes,
			ExpiresAt:       expiresAt,
			CreatedAt:       now,
		}

		c.broadcast(&domain.UserModeratedMessage{
			Type:      domain.MsgTypeUserModerated,
			RoomID:    c.roomID,
			TargetID:  req.TargetID,
			Action:    string(req.Action),
			Reason:    req.Reason,
			ExpiresAt: expiresAt,
		})

		if req.Action == domain.ActionKick || req.Action == domain.ActionBan {
			c.evictTarget(req, expiresAt)
		}

		c.deps.Persist.SaveParticipant(*target)
		c.deps.Persist.AppendModerationLog(entry)
		c.produceModerationEvent(entry)
		audit.LogWithTarget(ctx, audit.ActionModerate, c.roomID, req.ModeratorID, req.TargetID,
			string(req.Action), "moderation action applied")
		return nil
	})
}

// evictTarget sends the target a direct notice, then forcibly disconnects
// their room connections and unwinds membership. Must run on the op
// goroutine.
func (c *Coordinator) evictTarget(req ModerateRequest, expiresAt *time.Time) {
	st := c.st
	if !st.present(req.TargetID) {
		return
	}

	delivered := c.deps.Transport.SendToUser(c.roomID, req.TargetID, &domain.ModerationNoticeMessage{
		Type:      domain.MsgTypeModerationNotice,
		RoomID:    c.roomID,
		Action:    string(req.Action),
		Reason:    req.Reason,
		ExpiresAt: expiresAt,
	})
	if !delivered {
		l := pkglog.L()
		l.Debug().
			Str(pkglog.FieldRoomID, c.roomID).
			Str(pkglog.FieldTargetID, req.TargetID).
			Msg("moderation notice target unreachable")
	}

	c.deps.Transport.DisconnectUser(c.roomID, req.TargetID)
	c.leaveLocked(context.Background(), req.TargetID)
}

func (c *Coordinator) produceModerationEvent(entry domain.ModerationLogEntry) {
	if c.deps.Events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.deps.Events.ProduceModerationEvent(ctx, &entry); err != nil {
			l := pkglog.L()
			l.Warn().Err(err).
				Str(pkglog.FieldRoomID, entry.RoomID).
				Str(pkglog.FieldTargetID, entry.TargetID).
				Msg("failed to publish moderation event")
		}
	}()
}
