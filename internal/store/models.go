package store

import (
	"time"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/database"
)

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID               string  `gorm:"type:varchar(36);primaryKey"`
	CreatorID        string  `gorm:"type:varchar(36);index;not null"`
	Title            string  `gorm:"type:varchar(200);not null"`
	IsActive         bool    `gorm:"index;not null;default:true"`
	IsLive           bool    `gorm:"not null;default:false"`
	CurrentSessionID *string `gorm:"type:varchar(36)"`
	StreamURL        *string `gorm:"type:text"`
	ChatEnabled      bool    `gorm:"not null;default:true"`
	SlowModeSeconds  int     `gorm:"not null;default:0"`
	ParticipantCount int     `gorm:"not null;default:0"`
	MaxParticipants  int     `gorm:"not null;default:100"`
	TotalMessages    int     `gorm:"not null;default:0"`
	CreatedAt        time.Time
	ClosedAt         *time.Time
}

func (RoomModel) TableName() string { return "rooms" }

func (m *RoomModel) ToDomain() *domain.Room {
	return &domain.Room{
		ID:               m.ID,
		CreatorID:        m.CreatorID,
		Title:            m.Title,
		IsActive:         m.IsActive,
		IsLive:           m.IsLive,
		CurrentSessionID: m.CurrentSessionID,
		StreamURL:        m.StreamURL,
		ChatEnabled:      m.ChatEnabled,
		SlowModeSeconds:  m.SlowModeSeconds,
		ParticipantCount: m.ParticipantCount,
		MaxParticipants:  m.MaxParticipants,
		TotalMessages:    m.TotalMessages,
		CreatedAt:        m.CreatedAt,
		ClosedAt:         m.ClosedAt,
	}
}

func RoomToModel(r *domain.Room) *RoomModel {
	return &RoomModel{
		ID:               r.ID,
		CreatorID:        r.CreatorID,
		Title:            r.Title,
		IsActive:         r.IsActive,
		IsLive:           r.IsLive,
		CurrentSessionID: r.CurrentSessionID,
		StreamURL:        r.StreamURL,
		ChatEnabled:      r.ChatEnabled,
		SlowModeSeconds:  r.SlowModeSeconds,
		ParticipantCount: r.ParticipantCount,
		MaxParticipants:  r.MaxParticipants,
		TotalMessages:    r.TotalMessages,
		CreatedAt:        r.CreatedAt,
		ClosedAt:         r.ClosedAt,
	}
}

// ParticipantModel is the GORM model for the participants table. One row per
// (room, user); re-joins update the row in place.
type ParticipantModel struct {
	RoomID         string `gorm:"type:varchar(36);primaryKey"`
	UserID         string `gorm:"type:varchar(36);primaryKey"`
	DisplayName    string `gorm:"type:varchar(100);not null"`
	Role           string `gorm:"type:varchar(20);not null;default:'participant'"`
	Mood           string `gorm:"type:varchar(50)"`
	IsActive       bool   `gorm:"index;not null;default:true"`
	JoinedAt       time.Time
	LeftAt         *time.Time
	TotalTimeSpent int64 `gorm:"not null;default:0"`
	IsMuted        bool  `gorm:"not null;default:false"`
	MutedUntil     *time.Time
	IsBanned       bool `gorm:"not null;default:false"`
	BannedUntil    *time.Time
}

func (ParticipantModel) TableName() string { return "room_participants" }

func (m *ParticipantModel) ToDomain() *domain.Participant {
	return &domain.Participant{
		RoomID:         m.RoomID,
		UserID:         m.UserID,
		DisplayName:    m.DisplayName,
		Role:           domain.Role(m.Role),
		Mood:           m.Mood,
		IsActive:       m.IsActive,
		JoinedAt:       m.JoinedAt,
		LeftAt:         m.LeftAt,
		TotalTimeSpent: m.TotalTimeSpent,
		IsMuted:        m.IsMuted,
		MutedUntil:     m.MutedUntil,
		IsBanned:       m.IsBanned,
		BannedUntil:    m.BannedUntil,
	}
}

func ParticipantToModel(p *domain.Participant) *ParticipantModel {
	return &ParticipantModel{
		RoomID:         p.RoomID,
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		Role:           string(p.Role),
		Mood:           p.Mood,
		IsActive:       p.IsActive,
		JoinedAt:       p.JoinedAt,
		LeftAt:         p.LeftAt,
		TotalTimeSpent: p.TotalTimeSpent,
		IsMuted:        p.IsMuted,
		MutedUntil:     p.MutedUntil,
		IsBanned:       p.IsBanned,
		BannedUntil:    p.BannedUntil,
	}
}

// SessionModel is the GORM model for the live_sessions table.
type SessionModel struct {
	ID               string `gorm:"type:varchar(36);primaryKey"`
	RoomID           string `gorm:"type:varchar(36);index;not null"`
	Status           string `gorm:"type:varchar(20);index;not null"`
	StartedAt        time.Time
	EndedAt          *time.Time
	PeakParticipants int   `gorm:"not null;default:0"`
	TotalMessages    int   `gorm:"not null;default:0"`
	Duration         int64 `gorm:"not null;default:0"`
}

func (SessionModel) TableName() string { return "live_sessions" }

func (m *SessionModel) ToDomain() *domain.LiveSession {
	return &domain.LiveSession{
		ID:               m.ID,
		RoomID:           m.RoomID,
		Status:           domain.SessionStatus(m.Status),
		StartedAt:        m.StartedAt,
		EndedAt:          m.EndedAt,
		PeakParticipants: m.PeakParticipants,
		TotalMessages:    m.TotalMessages,
		Duration:         m.Duration,
	}
}

func SessionToModel(s *domain.LiveSession) *SessionModel {
	return &SessionModel{
		ID:               s.ID,
		RoomID:           s.RoomID,
		Status:           string(s.Status),
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		PeakParticipants: s.PeakParticipants,
		TotalMessages:    s.TotalMessages,
		Duration:         s.Duration,
	}
}

// MessageModel is the GORM model for the room_messages table.
type MessageModel struct {
	ID          string  `gorm:"type:varchar(36);primaryKey"`
	RoomID      string  `gorm:"type:varchar(36);index;not null"`
	SessionID   *string `gorm:"type:varchar(36);index"`
	UserID      string  `gorm:"type:varchar(36);index;not null"`
	DisplayName string  `gorm:"type:varchar(100);not null"`
	Type        string  `gorm:"type:varchar(20);not null;default:'message'"`
	Content     string  `gorm:"type:text"`
	IsPinned    bool    `gorm:"not null;default:false"`
	IsDeleted   bool    `gorm:"not null;default:false"`
	Reactions   database.StringSetMap
	CreatedAt   time.Time `gorm:"index"`
}

func (MessageModel) TableName() string { return "room_messages" }

func (m *MessageModel) ToDomain() *domain.Message {
	return &domain.Message{
		ID:          m.ID,
		RoomID:      m.RoomID,
		SessionID:   m.SessionID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Type:        domain.MessageType(m.Type),
		Content:     m.Content,
		IsPinned:    m.IsPinned,
		IsDeleted:   m.IsDeleted,
		Reactions:   map[string][]string(m.Reactions),
		CreatedAt:   m.CreatedAt,
	}
}

func MessageToModel(msg *domain.Message) *MessageModel {
	return &MessageModel{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		SessionID:   msg.SessionID,
		UserID:      msg.UserID,
		DisplayName: msg.DisplayName,
		Type:        string(msg.Type),
		Content:     msg.Content,
		IsPinned:    msg.IsPinned,
		IsDeleted:   msg.IsDeleted,
		Reactions:   database.StringSetMap(msg.Reactions),
		CreatedAt:   msg.CreatedAt,
	}
}

// ModerationLogModel is the GORM model for the moderation_logs table.
// Append-only; rows are never updated.
type ModerationLogModel struct {
	ID              string `gorm:"type:varchar(36);primaryKey"`
	RoomID          string `gorm:"type:varchar(36);index;not null"`
	ModeratorID     string `gorm:"type:varchar(36);index;not null"`
	TargetID        string `gorm:"type:varchar(36);index;not null"`
	Action          string `gorm:"type:varchar(20);not null"`
	Reason          string `gorm:"type:text"`
	DurationMinutes int    `gorm:"not null;default:0"`
	ExpiresAt       *time.Time
	CreatedAt       time.Time `gorm:"index"`
}

func (ModerationLogModel) TableName() string { return "moderation_logs" }

func ModerationLogToModel(e *domain.ModerationLogEntry) *ModerationLogModel {
	return &ModerationLogModel{
		ID:              e.ID,
		RoomID:          e.RoomID,
		ModeratorID:     e.ModeratorID,
		TargetID:        e.TargetID,
		Action:          string(e.Action),
		Reason:          e.Reason,
		DurationMinutes: e.DurationMinutes,
		ExpiresAt:       e.ExpiresAt,
		CreatedAt:       e.CreatedAt,
	}
}
