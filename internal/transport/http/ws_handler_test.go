package http

import (
	"testing"

	"github.com/coder/websocket"

	"github.com/vovakirdan/huddle-server/internal/core"
	"github.com/vovakirdan/huddle-server/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	srv := startTestServer(t, testConfig(), nil)

	resp, err := srv.ts.Client().Get(srv.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRoomFlow(t *testing.T) {
	srv := startTestServer(t, testConfig(), nil)

	alice := dial(t, srv)
	bob := dial(t, srv)
	alice.register("u-alice", "alice")
	bob.register("u-bob", "bob")

	created := alice.request(proto.InboundTypeCreateRoom, proto.CreateRoomData{RoomID: "r1", RoomName: "Lobby", IsCreate: true})
	if !created.OK || created.RoomID != "r1" || created.AdminID != "u-alice" || created.RoomName != "Lobby" {
		t.Fatalf("unexpected create ack: %+v", created)
	}

	joined := bob.request(proto.InboundTypeJoinRoom, proto.RoomData{RoomID: "r1"})
	if !joined.OK || len(joined.Users) != 2 {
		t.Fatalf("unexpected join ack: %+v", joined)
	}

	ev := decodeData[proto.EventUserJoined](t, alice.waitEvent("user_joined"))
	if ev.UserID != "u-bob" || ev.Username != "bob" || ev.Timestamp == 0 {
		t.Fatalf("unexpected user_joined: %+v", ev)
	}

	bob.send(proto.InboundTypeSendMessage, proto.SendMessageData{Room: "r1", Message: "hi there", MessageID: "m1"}, false)
	msg := decodeData[proto.EventMessage](t, alice.waitEvent("receive_message"))
	if msg.Message != "hi there" || msg.UserID != "u-bob" || msg.Username != "bob" || msg.MessageID != "m1" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	kick := alice.request(proto.InboundTypeKickUser, proto.KickUserData{RoomID: "r1", KickedUserID: "u-bob"})
	if !kick.OK {
		t.Fatalf("kick failed: %+v", kick)
	}
	kicked := decodeData[proto.EventKickedFromRoom](t, bob.waitEvent("kicked_from_room"))
	if kicked.RoomID != "r1" || kicked.KickedBy != "alice" {
		t.Fatalf("unexpected kicked_from_room: %+v", kicked)
	}
	notice := decodeData[proto.EventUserKicked](t, alice.waitEvent("user_kicked"))
	if notice.KickedUserID != "u-bob" || notice.Username != "bob" {
		t.Fatalf("unexpected user_kicked: %+v", notice)
	}

	rejoin := bob.request(proto.InboundTypeJoinRoom, proto.RoomData{RoomID: "r1"})
	if rejoin.OK || rejoin.ReasonType != core.ErrCodeBanned {
		t.Fatalf("expected banned rejoin, got %+v", rejoin)
	}
}

func TestWebSocketJoinMissingRoom(t *testing.T) {
	srv := startTestServer(t, testConfig(), nil)

	c := dial(t, srv)
	c.register("u1", "alice")
	c.send(proto.InboundTypeJoinRoom, proto.RoomData{RoomID: "ghost"}, false)

	denied := decodeData[proto.EventDenied](t, c.waitEvent("join_denied"))
	if denied.ReasonType != core.ErrCodeRoomNotFound || denied.RoomID != "ghost" {
		t.Fatalf("unexpected join_denied: %+v", denied)
	}
}

func TestWebSocketBadFramesKeepConnection(t *testing.T) {
	srv := startTestServer(t, testConfig(), nil)

	c := dial(t, srv)
	if err := c.conn.Write(c.ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	f := c.read()
	if f.Type != proto.OutboundTypeError || f.Error == nil || f.Error.Code != core.ErrCodeServerError {
		t.Fatalf("expected server_error for invalid json, got %+v", f)
	}

	ack := c.request("dance", map[string]string{})
	if ack.OK || ack.ReasonType != core.ErrCodeServerError {
		t.Fatalf("expected server_error ack for unknown type, got %+v", ack)
	}

	ack = c.request(proto.InboundTypeJoinRoom, map[string]int{"roomId": 7})
	if ack.OK || ack.ReasonType != core.ErrCodeServerError {
		t.Fatalf("expected server_error ack for mistyped data, got %+v", ack)
	}

	ack = c.request(proto.InboundTypeJoinRoom, proto.RoomData{})
	if ack.OK || ack.ReasonType != core.ErrCodeServerError {
		t.Fatalf("expected missing field rejection, got %+v", ack)
	}

	c.register("u1", "alice")
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.CommandsPerMinute = 2
	srv := startTestServer(t, cfg, nil)

	c := dial(t, srv)
	c.register("u1", "alice")
	c.request(proto.InboundTypeRequestRoomUsers, proto.RoomData{RoomID: "r1"})

	ack := c.request(proto.InboundTypeRequestRoomUsers, proto.RoomData{RoomID: "r1"})
	if ack.OK || ack.ReasonType != errCodeRateLimited {
		t.Fatalf("expected rate_limited, got %+v", ack)
	}
}

func TestWebSocketDisconnectReleasesMembership(t *testing.T) {
	srv := startTestServer(t, testConfig(), nil)

	alice := dial(t, srv)
	alice.register("u-alice", "alice")
	alice.request(proto.InboundTypeCreateRoom, proto.CreateRoomData{RoomID: "r1", IsCreate: true})

	bob := dial(t, srv)
	bob.register("u-bob", "bob")
	bob.request(proto.InboundTypeJoinRoom, proto.RoomData{RoomID: "r1"})

	bob.conn.Close(websocket.StatusNormalClosure, "bye")

	left := decodeData[proto.EventUserLeft](t, alice.waitEvent("user_left"))
	if left.UserID != "u-bob" || left.RoomID != "r1" {
		t.Fatalf("unexpected user_left: %+v", left)
	}
}
