package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrHubStopped is returned by queries made after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Options configures a Hub. Zero values pick defaults.
type Options struct {
	FailoverGrace      time.Duration
	MaxTrackedMessages int
	Logger             *zerolog.Logger
	Auditor            Auditor
}

type inbound struct {
	client     *Client
	cmd        *Command
	disconnect bool
}

type snapshotQuery struct {
	room  string
	reply chan snapshotResult
}

type snapshotResult struct {
	snapshot RoomSnapshot
	ok       bool
}

// Hub is the room coordinator. A single Run loop owns every table below and
// handles one command at a time, so each handler observes and mutates a
// consistent state and broadcasts in processing order.
type Hub struct {
	log     *zerolog.Logger
	auditor Auditor
	now     func() time.Time

	register  chan *Client
	inbox     chan inbound
	failovers chan failoverCommand
	queries   chan snapshotQuery
	done      chan struct{}

	sessions *sessionRegistry
	bans     *banLedger
	rooms    *roomRegistry
	admins   *adminManager
	typing   *typingAggregator
	messages *messageLedger
}

// NewHub creates a new room coordinator.
func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("module", "core.hub").Logger()

	h := &Hub{
		log:       &l,
		auditor:   opts.Auditor,
		now:       time.Now,
		register:  make(chan *Client),
		inbox:     make(chan inbound, 256),
		failovers: make(chan failoverCommand, 16),
		queries:   make(chan snapshotQuery),
		done:      make(chan struct{}),
		sessions:  newSessionRegistry(),
		bans:      newBanLedger(),
		typing:    newTypingAggregator(),
		messages:  newMessageLedger(opts.MaxTrackedMessages),
	}
	h.rooms = newRoomRegistry(h.bans)
	h.admins = newAdminManager(opts.FailoverGrace, h.postFailover)
	return h
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	h.log.Info().Dur("failover_grace", h.admins.grace).Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.attach(c)
		case in := <-h.inbox:
			h.dispatch(in)
		case f := <-h.failovers:
			h.applyFailover(f)
		case q := <-h.queries:
			q.reply <- h.query(q.room)
		}
	}
}

// RegisterClient attaches a connection. Commands sent on c.Commands after
// this returns are processed in order.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient signals that the connection is gone. It must be called
// once the transport stopped writing to c.Commands.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeCommands()
}

// Snapshot returns a copy of a room's presence state.
func (h *Hub) Snapshot(ctx context.Context, roomID string) (RoomSnapshot, bool, error) {
	q := snapshotQuery{room: roomID, reply: make(chan snapshotResult, 1)}
	select {
	case h.queries <- q:
	case <-ctx.Done():
		return RoomSnapshot{}, false, ctx.Err()
	case <-h.done:
		return RoomSnapshot{}, false, ErrHubStopped
	}
	select {
	case res := <-q.reply:
		return res.snapshot, res.ok, nil
	case <-ctx.Done():
		return RoomSnapshot{}, false, ctx.Err()
	}
}

func (h *Hub) attach(c *Client) {
	h.sessions.attach(c)
	go h.pump(c)
	h.log.Debug().Str("conn_id", c.ID).Msg("client attached")
}

// pump forwards a client's commands into the loop, followed by a
// disconnect once the command channel is closed.
func (h *Hub) pump(c *Client) {
	for cmd := range c.Commands {
		if cmd == nil {
			continue
		}
		select {
		case h.inbox <- inbound{client: c, cmd: cmd}:
		case <-h.done:
			return
		}
	}
	select {
	case h.inbox <- inbound{client: c, disconnect: true}:
	case <-h.done:
	}
}

func (h *Hub) postFailover(cmd failoverCommand) {
	select {
	case h.failovers <- cmd:
	case <-h.done:
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.admins.stopAll()
	for _, s := range h.sessions.all() {
		h.sessions.detach(s.connID())
		close(s.client.Events)
	}
	h.log.Info().Msg("hub stopped")
}

func (h *Hub) query(roomID string) snapshotResult {
	if !h.rooms.exists(roomID) {
		return snapshotResult{}
	}
	return snapshotResult{snapshot: *h.snapshot(roomID), ok: true}
}

// dispatch runs one command to completion. A panicking handler is logged
// and answered with server_error instead of taking the loop down.
func (h *Hub) dispatch(in inbound) {
	if in.disconnect {
		defer h.recoverHandler(in.client.ID, "disconnect", nil, nil)
		h.handleDisconnect(in.client)
		return
	}

	s := h.sessions.get(in.client.ID)
	if s == nil {
		return
	}
	cmd := in.cmd
	defer h.recoverHandler(s.connID(), cmd.Kind.String(), s, cmd)

	snap, err := h.handle(s, cmd)
	if err != nil {
		h.log.Debug().Err(err).
			Str("conn_id", s.connID()).
			Str("user_id", s.identity).
			Str("room_id", cmd.Room).
			Str("event", cmd.Kind.String()).
			Msg("command rejected")
	}
	h.reply(s, cmd, snap, err)
}

func (h *Hub) recoverHandler(connID, event string, s *session, cmd *Command) {
	r := recover()
	if r == nil {
		return
	}
	h.log.Error().Interface("panic", r).Str("conn_id", connID).Str("event", event).Msg("handler panic")
	if s != nil && cmd != nil {
		h.reply(s, cmd, nil, coreError(ErrCodeServerError, "Server error."))
	}
}

func (h *Hub) handle(s *session, cmd *Command) (*RoomSnapshot, error) {
	switch cmd.Kind {
	case CommandRegisterUser:
		return nil, h.handleRegister(s, cmd)
	case CommandCreateRoom:
		return h.handleCreate(s, cmd)
	case CommandJoinRoom:
		return h.handleJoin(s, cmd)
	case CommandLeaveRoom:
		return nil, h.handleLeave(s, cmd)
	case CommandSendMessage:
		return nil, h.handleSendMessage(s, cmd)
	case CommandDeleteMessage:
		return nil, h.handleDeleteMessage(s, cmd)
	case CommandTyping:
		return nil, h.handleTyping(s, cmd, true)
	case CommandStopTyping:
		return nil, h.handleTyping(s, cmd, false)
	case CommandMarkSeen:
		return nil, h.handleMarkSeen(s, cmd)
	case CommandRequestRoomUsers:
		return h.handleRequestRoomUsers(s, cmd)
	case CommandTransferAdmin:
		return nil, h.handleTransferAdmin(s, cmd)
	case CommandKickUser:
		return nil, h.handleKick(s, cmd)
	default:
		return nil, coreError(ErrCodeServerError, "unknown command")
	}
}

// reply sends the single ack owed to a command that carried an ack id.
func (h *Hub) reply(s *session, cmd *Command, snap *RoomSnapshot, err error) {
	if cmd.AckID == "" {
		return
	}
	ack := &Ack{ID: cmd.AckID, OK: err == nil, Snapshot: snap}
	if err != nil {
		ack.Error = toCoreError(err)
		ack.Snapshot = nil
	}
	h.send(s.client, &Event{Kind: EventAck, Room: cmd.Room, Ack: ack})
}

// send delivers without blocking; slow consumers lose the event.
func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("conn_id", c.ID).Str("event", ev.Kind.String()).Msg("dropping event for slow client")
	}
}

func (h *Hub) broadcast(roomID string, ev *Event) {
	h.broadcastExcept(roomID, "", ev)
}

func (h *Hub) broadcastExcept(roomID, exceptConn string, ev *Event) {
	for _, s := range h.sessions.roomConns(roomID) {
		if s.connID() == exceptConn {
			continue
		}
		h.send(s.client, ev)
	}
}

func (h *Hub) snapshot(roomID string) *RoomSnapshot {
	return h.rooms.listMembers(roomID, h.admins)
}

func (h *Hub) broadcastRoomUsers(roomID string) {
	h.broadcast(roomID, &Event{Kind: EventRoomUsers, Room: roomID, Snapshot: h.snapshot(roomID)})
}

// destroyRoom removes the room together with its bans, admin state,
// typing set and message ledger.
func (h *Hub) destroyRoom(roomID string) {
	h.rooms.destroy(roomID)
	h.admins.drop(roomID)
	h.typing.drop(roomID)
	h.messages.drop(roomID)
	for _, s := range h.sessions.roomConns(roomID) {
		h.sessions.setRoom(s, "")
	}
	h.audit(roomID, ModerationRoomDestroyed, "", "")
	h.log.Info().Str("room_id", roomID).Msg("room deleted, no users remain")
}

func (h *Hub) audit(roomID string, action ModerationAction, actor, target string) {
	if h.auditor == nil {
		return
	}
	h.auditor.Record(ModerationEntry{
		RoomID:   roomID,
		Action:   action,
		ActorID:  actor,
		TargetID: target,
		At:       h.now(),
	})
}
