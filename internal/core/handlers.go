package core

// departure tells releaseConnection how the connection left its room.
type departure int

const (
	departLeave departure = iota
	departDisconnect
)

func (h *Hub) handleRegister(s *session, cmd *Command) error {
	if s.identity != "" && s.identity != cmd.UserID && s.room != "" {
		h.releaseConnection(s, departLeave)
	}
	h.sessions.register(s, cmd.UserID, cmd.Username)
	h.log.Debug().Str("conn_id", s.connID()).Str("user_id", s.identity).Msg("user registered")

	roomID := s.room
	if roomID == "" {
		return nil
	}
	name := cmd.Username
	if name != "" && h.rooms.checkJoin(roomID, s.identity, name) != nil {
		h.log.Warn().Str("room_id", roomID).Str("user_id", s.identity).Str("username", name).
			Msg("display name taken, keeping previous one")
		name = ""
	}
	if h.rooms.refresh(roomID, s.identity, name, s.connID()) {
		h.broadcastRoomUsers(roomID)
	}
	return nil
}

func (h *Hub) handleCreate(s *session, cmd *Command) (*RoomSnapshot, error) {
	if s.identity == "" {
		return nil, h.denyCreate(s, cmd.Room, ErrNotRegistered)
	}
	if !cmd.Create {
		return nil, h.denyCreate(s, cmd.Room, coreError(ErrCodeNotAllowed, "Creation is not allowed from this endpoint."))
	}
	if err := h.rooms.checkCreate(cmd.Room, s.identity); err != nil {
		return nil, h.denyCreate(s, cmd.Room, err)
	}

	name := h.displayName(s, cmd.Username)
	if s.room != "" {
		h.releaseConnection(s, departLeave)
	}
	creator := Member{Identity: s.identity, DisplayName: name, ConnID: s.connID()}
	if err := h.rooms.create(cmd.Room, cmd.RoomName, creator, h.now()); err != nil {
		return nil, h.denyCreate(s, cmd.Room, err)
	}
	h.sessions.register(s, s.identity, name)
	h.sessions.setRoom(s, cmd.Room)
	h.admins.assignIfNone(cmd.Room, s.identity)
	h.audit(cmd.Room, ModerationRoomCreated, s.identity, "")

	h.log.Info().Str("room_id", cmd.Room).Str("room_name", cmd.RoomName).Str("user_id", s.identity).Msg("room created")
	h.broadcastRoomUsers(cmd.Room)
	return h.snapshot(cmd.Room), nil
}

func (h *Hub) denyCreate(s *session, roomID string, err error) error {
	h.send(s.client, &Event{Kind: EventCreateRoomFailed, Room: roomID, Error: toCoreError(err)})
	return err
}

func (h *Hub) handleJoin(s *session, cmd *Command) (*RoomSnapshot, error) {
	if s.identity == "" {
		return nil, h.denyJoin(s, cmd.Room, ErrNotRegistered)
	}
	name := h.displayName(s, cmd.Username)
	if err := h.rooms.checkJoin(cmd.Room, s.identity, name); err != nil {
		return nil, h.denyJoin(s, cmd.Room, err)
	}

	if s.room != "" && s.room != cmd.Room {
		h.releaseConnection(s, departLeave)
	}
	added, err := h.rooms.join(cmd.Room, s.identity, name, s.connID())
	if err != nil {
		return nil, h.denyJoin(s, cmd.Room, err)
	}
	h.sessions.register(s, s.identity, name)
	h.sessions.setRoom(s, cmd.Room)
	if h.admins.assignIfNone(cmd.Room, s.identity) {
		h.log.Info().Str("room_id", cmd.Room).Str("user_id", s.identity).Msg("admin assigned")
	}
	if prev, ok := h.admins.pendingFor(cmd.Room); ok && prev == s.identity {
		h.admins.cancel(cmd.Room)
		h.log.Info().Str("room_id", cmd.Room).Str("user_id", s.identity).Msg("admin returned within grace window")
	}

	h.log.Info().Str("room_id", cmd.Room).Str("user_id", s.identity).Str("conn_id", s.connID()).Msg("joined room")
	h.broadcastRoomUsers(cmd.Room)
	if added {
		h.broadcastExcept(cmd.Room, s.connID(), &Event{
			Kind:     EventUserJoined,
			Room:     cmd.Room,
			User:     s.identity,
			Username: name,
			At:       h.now(),
		})
	}
	return h.snapshot(cmd.Room), nil
}

func (h *Hub) denyJoin(s *session, roomID string, err error) error {
	h.send(s.client, &Event{Kind: EventJoinDenied, Room: roomID, Error: toCoreError(err)})
	return err
}

func (h *Hub) handleLeave(s *session, cmd *Command) error {
	if err := h.requireRoom(s, cmd.Room); err != nil {
		return err
	}
	h.releaseConnection(s, departLeave)
	return nil
}

func (h *Hub) handleDisconnect(c *Client) {
	s := h.sessions.get(c.ID)
	if s == nil {
		return
	}
	h.releaseConnection(s, departDisconnect)
	_, offline := h.sessions.detach(c.ID)
	close(c.Events)
	h.log.Debug().Str("conn_id", c.ID).Str("user_id", s.identity).Bool("offline", offline).Msg("client detached")
}

// releaseConnection detaches s from its room. The membership only ends when
// no other connection of the same identity is still in the room.
func (h *Hub) releaseConnection(s *session, kind departure) {
	roomID := s.room
	if roomID == "" {
		return
	}
	h.sessions.setRoom(s, "")
	typingChanged := h.typing.clear(roomID, s.connID())
	if !h.rooms.exists(roomID) {
		return
	}

	if others := h.sessions.inRoom(s.identity, roomID, ""); len(others) > 0 {
		if m, ok := h.rooms.member(roomID, s.identity); ok && m.ConnID == s.connID() {
			h.rooms.refresh(roomID, s.identity, "", others[0].connID())
		}
		if typingChanged {
			h.announceTyping(roomID, s.identity, "", EventUserStoppedTyping)
		}
		h.broadcastRoomUsers(roomID)
		return
	}
	h.removeMember(roomID, s.identity, kind, typingChanged)
}

func (h *Hub) removeMember(roomID, identity string, kind departure, typingChanged bool) {
	removed, remaining := h.rooms.leave(roomID, identity)
	if removed == nil {
		return
	}
	h.log.Info().Str("room_id", roomID).Str("user_id", identity).Int("remaining", remaining).Msg("left room")
	if remaining == 0 {
		h.destroyRoom(roomID)
		return
	}

	if admin, _ := h.admins.admin(roomID); admin == identity {
		if kind == departDisconnect {
			h.admins.schedule(roomID, identity)
			h.log.Info().Str("room_id", roomID).Str("user_id", identity).Dur("grace", h.admins.grace).
				Msg("admin disconnected, failover scheduled")
		} else {
			h.handover(roomID, identity, ModerationHandover)
		}
	}

	h.broadcast(roomID, &Event{Kind: EventUserLeft, Room: roomID, User: identity, Username: removed.DisplayName})
	if typingChanged {
		h.announceTyping(roomID, identity, "", EventUserStoppedTyping)
	}
	h.broadcastRoomUsers(roomID)
}

// handover gives admin to the earliest-joined remaining member.
func (h *Hub) handover(roomID, previous string, action ModerationAction) {
	next, ok := h.rooms.first(roomID)
	if !ok {
		return
	}
	h.admins.set(roomID, next.Identity)
	h.broadcast(roomID, &Event{Kind: EventAdminTransferred, Room: roomID, User: next.Identity})
	h.audit(roomID, action, previous, next.Identity)
	h.log.Info().Str("room_id", roomID).Str("from", previous).Str("to", next.Identity).Str("reason", string(action)).
		Msg("admin handed over")
}

func (h *Hub) applyFailover(cmd failoverCommand) {
	p, ok := h.admins.take(cmd)
	if !ok || !h.rooms.exists(cmd.room) {
		return
	}
	if _, back := h.rooms.member(cmd.room, p.previous); back {
		return
	}
	if admin, _ := h.admins.admin(cmd.room); admin != p.previous {
		return
	}
	h.handover(cmd.room, p.previous, ModerationFailover)
	h.broadcastRoomUsers(cmd.room)
}

// handleSendMessage relays to the room's connections. The sender does not
// have to be in the room.
func (h *Hub) handleSendMessage(s *session, cmd *Command) error {
	if cmd.Room == "" {
		return ErrRoomRequired
	}
	if h.typing.clear(cmd.Room, s.connID()) {
		h.announceTyping(cmd.Room, s.identity, s.connID(), EventUserStoppedTyping)
		h.broadcastRoomUsers(cmd.Room)
	}

	msg := cmd.Message
	if msg.ID == "" {
		msg.ID = cmd.MessageID
	}
	msg.Room = cmd.Room
	msg.SenderID = s.identity
	msg.SenderName = h.displayName(s, "")
	msg.SentAt = h.now()
	if h.rooms.exists(cmd.Room) {
		h.messages.record(cmd.Room, msg.ID, s.identity)
	}

	h.broadcast(cmd.Room, &Event{
		Kind:      EventReceiveMessage,
		Room:      cmd.Room,
		User:      s.identity,
		Username:  msg.SenderName,
		MessageID: msg.ID,
		Message:   msg,
		At:        msg.SentAt,
	})
	return nil
}

// handleDeleteMessage lets the author or the room admin delete a message.
// Ids no longer tracked can only be deleted by the admin.
func (h *Hub) handleDeleteMessage(s *session, cmd *Command) error {
	if err := h.requireRoom(s, cmd.Room); err != nil {
		return err
	}
	author, known := h.messages.author(cmd.Room, cmd.MessageID)
	admin, _ := h.admins.admin(cmd.Room)
	if !(known && author == s.identity) && admin != s.identity {
		return ErrNotAllowed
	}
	h.messages.forget(cmd.Room, cmd.MessageID)
	h.broadcast(cmd.Room, &Event{
		Kind:      EventMessageDeleted,
		Room:      cmd.Room,
		User:      s.identity,
		Actor:     s.displayName,
		MessageID: cmd.MessageID,
	})
	return nil
}

func (h *Hub) handleTyping(s *session, cmd *Command, typing bool) error {
	if err := h.requireRoom(s, cmd.Room); err != nil {
		return err
	}
	var changed bool
	kind := EventUserStoppedTyping
	if typing {
		kind = EventUserTyping
		changed = h.typing.set(cmd.Room, s.connID(), s.identity, h.displayName(s, cmd.Username))
	} else {
		changed = h.typing.clear(cmd.Room, s.connID())
	}
	if !changed {
		return nil
	}
	h.announceTyping(cmd.Room, s.identity, s.connID(), kind)
	h.broadcastRoomUsers(cmd.Room)
	return nil
}

// announceTyping syncs the member's typing flag and sends the typer list
// to everyone in the room except the originating connection.
func (h *Hub) announceTyping(roomID, identity, originConn string, kind EventKind) {
	h.rooms.setTyping(roomID, identity, h.typing.isTyping(roomID, identity))
	h.broadcastExcept(roomID, originConn, &Event{Kind: kind, Room: roomID, Typers: h.typing.typers(roomID)})
}

func (h *Hub) handleMarkSeen(s *session, cmd *Command) error {
	h.broadcast(cmd.Room, &Event{
		Kind:      EventMarkSeen,
		Room:      cmd.Room,
		User:      s.identity,
		Username:  h.displayName(s, ""),
		MessageID: cmd.MessageID,
	})
	return nil
}

func (h *Hub) handleRequestRoomUsers(s *session, cmd *Command) (*RoomSnapshot, error) {
	snap := h.snapshot(cmd.Room)
	h.send(s.client, &Event{Kind: EventRoomUsers, Room: cmd.Room, Snapshot: snap})
	return snap, nil
}

func (h *Hub) handleTransferAdmin(s *session, cmd *Command) error {
	if err := h.authorizeAdmin(s, cmd.Room); err != nil {
		return err
	}
	if cmd.UserID == s.identity {
		return nil
	}
	if _, ok := h.rooms.member(cmd.Room, cmd.UserID); !ok {
		return ErrNotMember
	}
	if err := h.admins.transfer(cmd.Room, s.identity, cmd.UserID); err != nil {
		return err
	}
	h.audit(cmd.Room, ModerationTransfer, s.identity, cmd.UserID)
	h.log.Info().Str("room_id", cmd.Room).Str("from", s.identity).Str("to", cmd.UserID).Msg("admin transferred")

	h.broadcast(cmd.Room, &Event{Kind: EventAdminTransferred, Room: cmd.Room, User: cmd.UserID})
	h.broadcastRoomUsers(cmd.Room)
	return nil
}

// handleKick removes the target, bans it and detaches every connection it
// has in the room. The room hears about it once. Absent identities are
// banned too.
func (h *Hub) handleKick(s *session, cmd *Command) error {
	if err := h.authorizeAdmin(s, cmd.Room); err != nil {
		return err
	}
	if cmd.UserID == "" || cmd.UserID == s.identity {
		return ErrNotAllowed
	}
	target, ok := h.rooms.member(cmd.Room, cmd.UserID)
	if !ok {
		target = Member{Identity: cmd.UserID, DisplayName: cmd.UserID}
	}

	h.rooms.leave(cmd.Room, cmd.UserID)
	h.bans.ban(cmd.Room, cmd.UserID)
	typingChanged := false
	for _, ts := range h.sessions.inRoom(cmd.UserID, cmd.Room, "") {
		h.sessions.setRoom(ts, "")
		if h.typing.clear(cmd.Room, ts.connID()) {
			typingChanged = true
		}
		h.send(ts.client, &Event{Kind: EventKickedFromRoom, Room: cmd.Room, Actor: s.displayName})
	}
	h.audit(cmd.Room, ModerationKick, s.identity, cmd.UserID)
	h.log.Info().Str("room_id", cmd.Room).Str("user_id", cmd.UserID).Str("by", s.identity).Msg("user kicked")

	if h.rooms.size(cmd.Room) == 0 {
		h.destroyRoom(cmd.Room)
		return nil
	}
	h.broadcast(cmd.Room, &Event{
		Kind:     EventUserKicked,
		Room:     cmd.Room,
		User:     cmd.UserID,
		Username: target.DisplayName,
		Actor:    s.displayName,
	})
	if typingChanged {
		h.announceTyping(cmd.Room, cmd.UserID, "", EventUserStoppedTyping)
	}
	h.broadcastRoomUsers(cmd.Room)
	return nil
}

// authorizeAdmin compares the caller's identity with the room's admin.
// Any tab of the admin qualifies, including one outside the room.
func (h *Hub) authorizeAdmin(s *session, roomID string) error {
	if !h.rooms.exists(roomID) {
		return ErrRoomNotFound
	}
	admin, _ := h.admins.admin(roomID)
	if s.identity == "" || admin != s.identity {
		h.log.Debug().Str("room_id", roomID).Str("user_id", s.identity).Msg("privileged command from non-admin ignored")
		return ErrNotAllowed
	}
	return nil
}

func (h *Hub) requireRoom(s *session, roomID string) error {
	if roomID == "" || s.room != roomID {
		return ErrNotInRoom
	}
	return nil
}

func (h *Hub) displayName(s *session, requested string) string {
	switch {
	case requested != "":
		return requested
	case s.displayName != "":
		return s.displayName
	default:
		return s.identity
	}
}
