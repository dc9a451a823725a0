package store

import (
	"context"
	"time"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

const writeTimeout = 5 * time.Second

type writeOp struct {
	name string
	fn   func(context.Context) error
}

// AsyncWriter decouples durable writes from the in-memory hot path. Writes
// are queued and applied by a single worker; failures and overflow are logged
// and never retried or rolled back. The in-memory room state stays the source
// of truth and the durable copy is allowed to lag.
type AsyncWriter struct {
	store Store
	ops   chan writeOp
	done  chan struct{}
}

// NewAsyncWriter creates a writer with the given queue size.
func NewAsyncWriter(s Store, queueSize int) *AsyncWriter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &AsyncWriter{
		store: s,
		ops:   make(chan writeOp, queueSize),
		done:  make(chan struct{}),
	}
}

// Run drains the write queue until ctx is cancelled.
func (w *AsyncWriter) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-w.ops:
			w.apply(op)
		}
	}
}

// Close waits for the worker to stop.
func (w *AsyncWriter) Close() {
	<-w.done
}

func (w *AsyncWriter) apply(op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := op.fn(ctx); err != nil {
		l := pkglog.L()
		l.Error().Err(err).Str("write_op", op.name).Msg("durable write failed")
	}
}

func (w *AsyncWriter) enqueue(name string, fn func(context.Context) error) {
	select {
	case w.ops <- writeOp{name: name, fn: fn}:
	default:
		l := pkglog.L()
		l.Warn().Str("write_op", name).Msg("durable write queue full, dropping write")
	}
}

// SaveRoom queues a room upsert.
func (w *AsyncWriter) SaveRoom(room domain.Room) {
	w.enqueue("save_room", func(ctx context.Context) error {
		return w.store.SaveRoom(ctx, &room)
	})
}

// SaveParticipant queues a participant upsert.
func (w *AsyncWriter) SaveParticipant(p domain.Participant) {
	w.enqueue("save_participant", func(ctx context.Context) error {
		return w.store.SaveParticipant(ctx, &p)
	})
}

// SaveSession queues a session upsert.
func (w *AsyncWriter) SaveSession(s domain.LiveSession) {
	w.enqueue("save_session", func(ctx context.Context) error {
		return w.store.SaveSession(ctx, &s)
	})
}

// SaveMessage queues a message upsert.
func (w *AsyncWriter) SaveMessage(m domain.Message) {
	w.enqueue("save_message", func(ctx context.Context) error {
		return w.store.SaveMessage(ctx, &m)
	})
}

// AppendModerationLog queues an audit append. A failed audit write never
// fails the moderation action it records.
func (w *AsyncWriter) AppendModerationLog(e domain.ModerationLogEntry) {
	w.enqueue("append_moderation_log", func(ctx context.Context) error {
		return w.store.AppendModerationLog(ctx, &e)
	})
}
