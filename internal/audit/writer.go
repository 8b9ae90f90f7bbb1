package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/huddle-server/internal/core"
	"github.com/vovakirdan/huddle-server/internal/store"
)

const (
	defaultQueueSize = 256
	flushInterval    = 500 * time.Millisecond
	maxBatch         = 64
)

// Writer moves moderation entries from the hub loop to an AuditStore.
// Record never blocks; entries are dropped when the queue is full.
type Writer struct {
	store store.AuditStore
	log   *zerolog.Logger
	queue chan core.ModerationEntry
}

// NewWriter creates a writer; call Run to start draining.
func NewWriter(st store.AuditStore, logger *zerolog.Logger) *Writer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("module", "audit").Logger()
	return &Writer{
		store: st,
		log:   &l,
		queue: make(chan core.ModerationEntry, defaultQueueSize),
	}
}

// Record implements core.Auditor.
func (w *Writer) Record(entry core.ModerationEntry) {
	select {
	case w.queue <- entry:
	default:
		w.log.Warn().Str("room_id", entry.RoomID).Str("action", string(entry.Action)).Msg("audit queue full, dropping entry")
	}
}

// Run writes queued entries in batches until ctx is cancelled, then
// flushes what is left.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]store.ModerationEntry, 0, maxBatch)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := w.store.RecordModeration(ctx, batch); err != nil {
			w.log.Error().Err(err).Int("entries", len(batch)).Msg("failed to persist moderation entries")
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-w.queue:
			batch = append(batch, toStoreEntry(e))
			if len(batch) >= maxBatch {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
		drain:
			for {
				select {
				case e := <-w.queue:
					batch = append(batch, toStoreEntry(e))
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			flush(flushCtx)
			cancel()
			return
		}
	}
}

func toStoreEntry(e core.ModerationEntry) store.ModerationEntry {
	return store.ModerationEntry{
		RoomID:   e.RoomID,
		Action:   string(e.Action),
		ActorID:  e.ActorID,
		TargetID: e.TargetID,
		At:       e.At,
	}
}
