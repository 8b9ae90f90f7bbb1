package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomUsers carries a membership snapshot of a room.
	EventRoomUsers EventKind = iota
	// EventJoinDenied tells a connection why its join failed.
	EventJoinDenied
	// EventUserJoined notifies the room about a new member.
	EventUserJoined
	// EventUserLeft notifies the room that a member is gone.
	EventUserLeft
	// EventUserTyping carries the typer list after someone started typing.
	EventUserTyping
	// EventUserStoppedTyping carries the typer list after someone stopped typing.
	EventUserStoppedTyping
	// EventReceiveMessage relays a chat message.
	EventReceiveMessage
	// EventMessageDeleted marks a message as deleted.
	EventMessageDeleted
	// EventMarkSeen relays a read receipt.
	EventMarkSeen
	// EventAdminTransferred announces a new room admin.
	EventAdminTransferred
	// EventUserKicked is the room-wide kick notice.
	EventUserKicked
	// EventKickedFromRoom is delivered only to the kicked connections.
	EventKickedFromRoom
	// EventCreateRoomFailed tells a connection why its create failed.
	EventCreateRoomFailed
	// EventAck answers a command that carried an ack id.
	EventAck
)

var eventNames = [...]string{
	EventRoomUsers:         "room_users",
	EventJoinDenied:        "join_denied",
	EventUserJoined:        "user_joined",
	EventUserLeft:          "user_left",
	EventUserTyping:        "user_typing",
	EventUserStoppedTyping: "user_stopped_typing",
	EventReceiveMessage:    "receive_message",
	EventMessageDeleted:    "message_deleted",
	EventMarkSeen:          "mark_seen",
	EventAdminTransferred:  "admin_transferred",
	EventUserKicked:        "user_kicked",
	EventKickedFromRoom:    "kicked_from_room",
	EventCreateRoomFailed:  "create_room_failed",
	EventAck:               "ack",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be modified once sent.
type Event struct {
	Kind      EventKind
	Room      string
	User      string // identity the event is about
	Username  string
	Actor     string // display name of whoever kicked or deleted
	MessageID string
	Message   Message
	Snapshot  *RoomSnapshot
	Typers    []Typer
	Error     *CoreError
	Ack       *Ack
	At        time.Time
}

// Ack is the single reply to a command carrying an ack id.
type Ack struct {
	ID       string
	OK       bool
	Error    *CoreError
	Snapshot *RoomSnapshot
}

// RoomSnapshot is a copy of a room's presence state.
type RoomSnapshot struct {
	RoomID    string
	RoomName  string
	AdminID   string
	CreatedAt time.Time
	Users     []Member
}

// Typer is one entry of a room's typing list.
type Typer struct {
	UserID   string
	Username string
}
