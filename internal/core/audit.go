package core

import "time"

// ModerationAction names an entry in the moderation log.
type ModerationAction string

const (
	ModerationRoomCreated   ModerationAction = "room_created"
	ModerationRoomDestroyed ModerationAction = "room_destroyed"
	ModerationKick          ModerationAction = "kick"
	ModerationTransfer      ModerationAction = "transfer"
	ModerationHandover      ModerationAction = "handover"
	ModerationFailover      ModerationAction = "failover"
)

// ModerationEntry describes a privileged or lifecycle change in a room.
type ModerationEntry struct {
	RoomID   string
	Action   ModerationAction
	ActorID  string
	TargetID string
	At       time.Time
}

// Auditor receives moderation entries from the hub loop. Record must not
// block.
type Auditor interface {
	Record(entry ModerationEntry)
}
