package store

import (
	"context"
	"errors"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// Store is the relational persistence contract for the coordination core.
// Reads happen synchronously at coordinator creation; writes flow through the
// AsyncWriter and are fire-and-forget relative to the hot path.
type Store interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
	ListRecentMessages(ctx context.Context, roomID string, limit int) ([]domain.Message, error)

	SaveRoom(ctx context.Context, room *domain.Room) error
	SaveParticipant(ctx context.Context, p *domain.Participant) error
	SaveSession(ctx context.Context, s *domain.LiveSession) error
	SaveMessage(ctx context.Context, m *domain.Message) error
	AppendModerationLog(ctx context.Context, e *domain.ModerationLogEntry) error
}
