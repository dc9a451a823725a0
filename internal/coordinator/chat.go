package coordinator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/audit"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// maxMessageLength bounds chat content after trimming.
const maxMessageLength = 2000

// SendMessage validates, commits and fans out one chat message. Policy checks
// run in a fixed order so a muted user in a chat-disabled room always sees the
// chat-disabled rejection.
func (c *Coordinator) SendMessage(ctx context.Context, userID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxMessageLength {
		return nil, ErrInvalidAction
	}

	var out *domain.Message
	err := c.do(ctx, func() error {
		st := c.st
		now := c.now()

		if !st.room.ChatEnabled {
			return ErrChatDisabled
		}

		p, ok := st.participants[userID]
		if !ok || !st.present(userID) {
			return ErrNotInRoom
		}
		if p.MuteActive(now) {
			return ErrMuted
		}
		if st.room.SlowModeSeconds > 0 && !p.CanModerate() && p.LastMessageAt != nil {
			wait := time.Duration(st.room.SlowModeSeconds) * time.Second
			if now.Sub(*p.LastMessageAt) < wait {
				return ErrSlowMode
			}
		}

		m := &domain.Message{
			ID:          uuid.New().String(),
			RoomID:      c.roomID,
			UserID:      userID,
			DisplayName: p.DisplayName,
			Type:        domain.MessageTypeChat,
			Content:     content,
			CreatedAt:   now,
		}
		if st.session != nil {
			m.SessionID = &st.session.ID
			st.session.TotalMessages++
		}

		st.addMessage(m)
		st.room.TotalMessages++
		last := now
		p.LastMessageAt = &last

		c.broadcast(&domain.NewMessageMessage{
			Type:    domain.MsgTypeNewMessage,
			RoomID:  c.roomID,
			Message: m,
		})

		c.deps.Persist.SaveMessage(*m)
		c.deps.Persist.SaveRoom(st.room)
		c.produceMessageEvent(m)

		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// React toggles the caller's reaction on a message and fans out the full
// updated reaction set.
func (c *Coordinator) React(ctx context.Context, userID, messageID, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return ErrInvalidAction
	}

	return c.do(ctx, func() error {
		st := c.st

		if !st.present(userID) {
			return ErrNotInRoom
		}
		m, ok := st.messages[messageID]
		if !ok || m.IsDeleted {
			return ErrMessageNotFound
		}

		m.ToggleReaction(emoji, userID)

		c.broadcast(&domain.ReactionUpdatedMessage{
			Type:      domain.MsgTypeReactionUpdated,
			RoomID:    c.roomID,
			MessageID: m.ID,
			Reactions: m.Reactions,
		})

		c.deps.Persist.SaveMessage(*m)
		return nil
	})
}

// PinMessage makes messageID the room's single pinned message, clearing any
// previous pin in the same step. Only the room creator may pin.
func (c *Coordinator) PinMessage(ctx context.Context, userID, messageID string) error {
	return c.do(ctx, func() error {
		st := c.st

		if !st.isCreator(userID) {
			return ErrForbidden
		}
		m, ok := st.messages[messageID]
		if !ok || m.IsDeleted {
			return ErrMessageNotFound
		}

		var unpinnedID string
		if st.pinnedID != "" && st.pinnedID != messageID {
			if prev, ok := st.messages[st.pinnedID]; ok {
				prev.IsPinned = false
				c.deps.Persist.SaveMessage(*prev)
				unpinnedID = prev.ID
			}
		}

		m.IsPinned = true
		st.pinnedID = m.ID

		c.broadcast(&domain.MessagePinnedMessage{
			Type:       domain.MsgTypeMessagePinned,
			RoomID:     c.roomID,
			MessageID:  m.ID,
			UnpinnedID: unpinnedID,
		})

		c.deps.Persist.SaveMessage(*m)
		audit.LogWithTarget(ctx, audit.ActionPinMessage, c.roomID, userID, m.UserID, m.ID, "message pinned")
		return nil
	})
}

// DeleteMessage soft-deletes a message. Creator and moderators only.
// Content is cleared immediately.
func (c *Coordinator) DeleteMessage(ctx context.Context, userID, messageID string) error {
	return c.do(ctx, func() error {
		st := c.st

		m, ok := st.messages[messageID]
		if !ok || m.IsDeleted {
			return ErrMessageNotFound
		}
		if !st.canModerate(userID) {
			return ErrForbidden
		}

		m.IsDeleted = true
		m.Content = ""
		if st.pinnedID == m.ID {
			m.IsPinned = false
			st.pinnedID = ""
		}

		c.broadcast(&domain.MessageDeletedMessage{
			Type:      domain.MsgTypeMessageDeleted,
			RoomID:    c.roomID,
			MessageID: m.ID,
		})

		c.deps.Persist.SaveMessage(*m)
		audit.LogWithTarget(ctx, audit.ActionDeleteMessage, c.roomID, userID, m.UserID, m.ID, "message deleted")
		return nil
	})
}

// systemMessage commits and fans out a coordinator-generated notice. Bypasses
// chat policy; system notices land even in chat-disabled rooms. Must run on
// the op goroutine.
func (c *Coordinator) systemMessage(content string) {
	st := c.st

	m := &domain.Message{
		ID:        uuid.New().String(),
		RoomID:    c.roomID,
		Type:      domain.MessageTypeSystem,
		Content:   content,
		CreatedAt: c.now(),
	}
	if st.session != nil {
		m.SessionID = &st.session.ID
	}

	st.addMessage(m)

	c.broadcast(&domain.NewMessageMessage{
		Type:    domain.MsgTypeNewMessage,
		RoomID:  c.roomID,
		Message: m,
	})
	c.deps.Persist.SaveMessage(*m)
}

func (c *Coordinator) produceMessageEvent(m *domain.Message) {
	if c.deps.Events == nil {
		return
	}
	msg := *m
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.deps.Events.ProduceMessageEvent(ctx, &msg); err != nil {
			l := pkglog.L()
			l.Warn().Err(err).
				Str(pkglog.FieldRoomID, msg.RoomID).
				Str(pkglog.FieldMessageID, msg.ID).
				Msg("failed to publish message event")
		}
	}()
}
