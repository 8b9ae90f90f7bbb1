package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Ack  string          `json:"ack,omitempty"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeRegisterUser     = "register_user"
	InboundTypeCreateRoom       = "create_room"
	InboundTypeJoinRoom         = "join_room"
	InboundTypeLeaveRoom        = "leave_room"
	InboundTypeSendMessage      = "send_message"
	InboundTypeDeleteMessage    = "delete_message"
	InboundTypeTyping           = "typing"
	InboundTypeStopTyping       = "stop_typing"
	InboundTypeMarkSeen         = "mark_seen"
	InboundTypeRequestRoomUsers = "request_room_users"
	InboundTypeTransferAdmin    = "transfer_admin"
	InboundTypeKickUser         = "kick_user"

	OutboundTypeEvent = "event"
	OutboundTypeAck   = "ack"
	OutboundTypeError = "error"
)

// RegisterUserData binds an identity to the connection.
type RegisterUserData struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// CreateRoomData creates a room. IsCreate must be true.
type CreateRoomData struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName,omitempty"`
	Username string `json:"username,omitempty"`
	IsCreate bool   `json:"isCreate"`
}

// RoomData addresses a room; used by join, leave, typing and snapshot requests.
type RoomData struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
}

// Reply references the message being answered.
type Reply struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text,omitempty"`
	Author    string `json:"author,omitempty"`
	AuthorID  string `json:"authorId,omitempty"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	Room      string `json:"room"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	ReplyTo   *Reply `json:"replyTo,omitempty"`
	Author    string `json:"author,omitempty"`
	Time      string `json:"time,omitempty"`
}

// MessageRefData points at a message; used by delete_message and mark_seen.
type MessageRefData struct {
	Room      string `json:"room"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId,omitempty"`
}

// TransferAdminData names the new admin.
type TransferAdminData struct {
	RoomID     string `json:"roomId"`
	NewAdminID string `json:"newAdminId"`
}

// KickUserData names the identity to kick.
type KickUserData struct {
	RoomID       string `json:"roomId"`
	KickedUserID string `json:"kickedUserId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Ack   string `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is one entry of a room_users snapshot.
type User struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// EventRoomUsers is a membership snapshot.
type EventRoomUsers struct {
	RoomID   string `json:"roomId"`
	Users    []User `json:"users"`
	AdminID  string `json:"adminId,omitempty"`
	RoomName string `json:"roomName"`
}

// EventDenied explains a failed join or create.
type EventDenied struct {
	RoomID     string `json:"roomId,omitempty"`
	Reason     string `json:"reason"`
	ReasonType string `json:"reasonType"`
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Typer is one entry of the typing list.
type Typer struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// EventTyping carries the current typer list.
type EventTyping struct {
	RoomID string  `json:"roomId"`
	Typers []Typer `json:"typers"`
}

// EventMessage relays a chat message with server-observed sender metadata.
type EventMessage struct {
	Room      string `json:"room"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	ReplyTo   *Reply `json:"replyTo,omitempty"`
	Author    string `json:"author,omitempty"`
	Time      string `json:"time,omitempty"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// EventMessageDeleted marks a message as deleted.
type EventMessageDeleted struct {
	Room      string `json:"room"`
	MessageID string `json:"messageId"`
	DeletedBy string `json:"deletedBy"`
}

// EventMarkSeen is a read receipt.
type EventMarkSeen struct {
	Room      string `json:"room"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
}

// EventAdminTransferred announces the new admin.
type EventAdminTransferred struct {
	RoomID     string `json:"roomId"`
	NewAdminID string `json:"newAdminId"`
}

// EventUserKicked is the room-wide kick notice.
type EventUserKicked struct {
	RoomID       string `json:"roomId"`
	Username     string `json:"username"`
	KickedBy     string `json:"kickedBy"`
	KickedUserID string `json:"kickedUserId"`
}

// EventKickedFromRoom is sent to each kicked connection.
type EventKickedFromRoom struct {
	RoomID   string `json:"roomId"`
	KickedBy string `json:"kickedBy"`
}

// AckData answers a request that carried an ack id.
type AckData struct {
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
	ReasonType string `json:"reasonType,omitempty"`
	RoomID     string `json:"roomId,omitempty"`
	Users      []User `json:"users,omitempty"`
	AdminID    string `json:"adminId,omitempty"`
	RoomName   string `json:"roomName,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
