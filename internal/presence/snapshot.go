package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/config"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

var ErrNoSnapshot = errors.New("no presence snapshot")

// Snapshot is the per-room presence summary kept beside the authoritative
// in-memory state. A recreated coordinator seeds its counters from it.
type Snapshot struct {
	RoomID           string
	ParticipantCount int
	PeakParticipants int
	IsLive           bool
	SessionID        string
}

// SnapshotStore persists room presence snapshots in Redis.
//
// Key layout:
//
//	{prefix}:room:{room_id}  HASH
//	  participant_count, peak_participants, is_live, session_id
type SnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSnapshotStore connects to Redis and returns a snapshot store.
func NewSnapshotStore(cfg config.RedisConfig) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &SnapshotStore{
		client: client,
		prefix: cfg.SnapshotPrefix,
		ttl:    cfg.SnapshotTTL,
	}, nil
}

func (s *SnapshotStore) keyFor(roomID string) string {
	return fmt.Sprintf("%s:room:%s", s.prefix, roomID)
}

// Save writes the snapshot with a TTL. Called after every in-memory commit;
// failures are logged by the caller and never block the hot path.
func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	key := s.keyFor(snap.RoomID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"participant_count", snap.ParticipantCount,
		"peak_participants", snap.PeakParticipants,
		"is_live", strconv.FormatBool(snap.IsLive),
		"session_id", snap.SessionID,
	)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save presence snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for a room. Returns ErrNoSnapshot when the key is
// missing or expired.
func (s *SnapshotStore) Load(ctx context.Context, roomID string) (*Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.keyFor(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load presence snapshot: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNoSnapshot
	}

	count, _ := strconv.Atoi(fields["participant_count"])
	peak, _ := strconv.Atoi(fields["peak_participants"])
	isLive, _ := strconv.ParseBool(fields["is_live"])

	return &Snapshot{
		RoomID:           roomID,
		ParticipantCount: count,
		PeakParticipants: peak,
		IsLive:           isLive,
		SessionID:        fields["session_id"],
	}, nil
}

// Delete removes the snapshot when a coordinator retires an empty room.
func (s *SnapshotStore) Delete(ctx context.Context, roomID string) error {
	if err := s.client.Del(ctx, s.keyFor(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete presence snapshot: %w", err)
	}
	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldRoomID, roomID).Msg("presence snapshot deleted")
	return nil
}

// Close releases the Redis connection.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}
