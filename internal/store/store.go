package store

import (
	"context"
	"time"
)

// ModerationEntry is one persisted moderation or room lifecycle record.
type ModerationEntry struct {
	ID       int64
	RoomID   string
	Action   string
	ActorID  string
	TargetID string
	At       time.Time
}

// AuditStore persists the moderation log.
type AuditStore interface {
	// RecordModeration appends entries in one transaction.
	RecordModeration(ctx context.Context, entries []ModerationEntry) error

	// ListModeration returns the newest entries of a room first.
	// Limit determines max number of entries to return.
	ListModeration(ctx context.Context, roomID string, limit int) ([]ModerationEntry, error)

	// Close closes the underlying database connection.
	Close() error
}
