package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/database"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate runs auto-migration for all coordination tables.
func (s *GormStore) Migrate() error {
	return database.AutoMigrate(s.db,
		&RoomModel{},
		&ParticipantModel{},
		&SessionModel{},
		&MessageModel{},
		&ModerationLogModel{},
	)
}

func (s *GormStore) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var model RoomModel
	result := s.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

func (s *GormStore) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	var models []ParticipantModel
	result := s.db.WithContext(ctx).Where("room_id = ?", roomID).Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	participants := make([]domain.Participant, len(models))
	for i := range models {
		participants[i] = *models[i].ToDomain()
	}
	return participants, nil
}

func (s *GormStore) ListRecentMessages(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	var models []MessageModel
	result := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	// Reverse into chronological order.
	messages := make([]domain.Message, len(models))
	for i := range models {
		messages[len(models)-1-i] = *models[i].ToDomain()
	}
	return messages, nil
}

func (s *GormStore) SaveRoom(ctx context.Context, room *domain.Room) error {
	model := RoomToModel(room)
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(result.Error).Str(pkglog.FieldRoomID, room.ID).Msg("failed to save room")
		return result.Error
	}
	return nil
}

func (s *GormStore) SaveParticipant(ctx context.Context, p *domain.Participant) error {
	model := ParticipantToModel(p)
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(result.Error).
			Str(pkglog.FieldRoomID, p.RoomID).
			Str(pkglog.FieldUserID, p.UserID).
			Msg("failed to save participant")
		return result.Error
	}
	return nil
}

func (s *GormStore) SaveSession(ctx context.Context, sess *domain.LiveSession) error {
	model := SessionToModel(sess)
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(result.Error).Str(pkglog.FieldSessionID, sess.ID).Msg("failed to save session")
		return result.Error
	}
	return nil
}

func (s *GormStore) SaveMessage(ctx context.Context, m *domain.Message) error {
	model := MessageToModel(m)
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(result.Error).Str(pkglog.FieldMessageID, m.ID).Msg("failed to save message")
		return result.Error
	}
	return nil
}

func (s *GormStore) AppendModerationLog(ctx context.Context, e *domain.ModerationLogEntry) error {
	model := ModerationLogToModel(e)
	result := s.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(result.Error).
			Str(pkglog.FieldRoomID, e.RoomID).
			Str(pkglog.FieldTargetID, e.TargetID).
			Msg("failed to append moderation log")
		return result.Error
	}
	return nil
}
