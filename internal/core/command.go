package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandRegisterUser binds an identity to the connection.
	CommandRegisterUser CommandKind = iota
	// CommandCreateRoom creates a room and joins the creator.
	CommandCreateRoom
	// CommandJoinRoom joins an existing room.
	CommandJoinRoom
	// CommandLeaveRoom detaches the connection from its room.
	CommandLeaveRoom
	// CommandSendMessage relays a chat message to the room.
	CommandSendMessage
	// CommandDeleteMessage broadcasts a deletion marker.
	CommandDeleteMessage
	// CommandTyping marks the connection as typing.
	CommandTyping
	// CommandStopTyping clears the connection's typing state.
	CommandStopTyping
	// CommandMarkSeen broadcasts a read receipt.
	CommandMarkSeen
	// CommandRequestRoomUsers asks for a room snapshot.
	CommandRequestRoomUsers
	// CommandTransferAdmin hands admin to another member.
	CommandTransferAdmin
	// CommandKickUser removes and bans a member.
	CommandKickUser
)

var commandNames = [...]string{
	CommandRegisterUser:     "register_user",
	CommandCreateRoom:       "create_room",
	CommandJoinRoom:         "join_room",
	CommandLeaveRoom:        "leave_room",
	CommandSendMessage:      "send_message",
	CommandDeleteMessage:    "delete_message",
	CommandTyping:           "typing",
	CommandStopTyping:       "stop_typing",
	CommandMarkSeen:         "mark_seen",
	CommandRequestRoomUsers: "request_room_users",
	CommandTransferAdmin:    "transfer_admin",
	CommandKickUser:         "kick_user",
}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// Command represents an action requested by a client.
// UserID carries the identity the command is about: the registering user,
// the new admin, the kick target or the read-receipt author.
type Command struct {
	Kind      CommandKind
	AckID     string
	Room      string
	RoomName  string
	UserID    string
	Username  string
	Create    bool
	MessageID string
	Message   Message
}
