package core

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent drains ch for d and fails if an event of kind shows up.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, d time.Duration) {
	t.Helper()

	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		case <-timer.C:
			return
		}
	}
}

var ackSeq atomic.Int64

func nextAck() string {
	return "ack-" + strconv.FormatInt(ackSeq.Add(1), 10)
}

// roundTrip sends cmd with a fresh ack id and returns every event received
// before the ack, plus the ack itself.
func roundTrip(t *testing.T, c *Client, cmd *Command) ([]*Event, *Ack) {
	t.Helper()

	cmd.AckID = nextAck()
	c.Commands <- cmd

	var seen []*Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.Events:
			if ev == nil {
				t.Fatalf("events closed while waiting for ack of %v", cmd.Kind)
			}
			if ev.Kind == EventAck && ev.Ack != nil && ev.Ack.ID == cmd.AckID {
				return seen, ev.Ack
			}
			seen = append(seen, ev)
		case <-deadline:
			t.Fatalf("no ack for %v", cmd.Kind)
		}
	}
}

// barrier waits until the hub processed everything c sent so far.
func barrier(t *testing.T, c *Client) []*Event {
	t.Helper()
	seen, _ := roundTrip(t, c, &Command{Kind: CommandRequestRoomUsers})
	return seen
}

func countKind(events []*Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(opts)
	go hub.Run(ctx)
	return hub
}

// connect attaches a new connection and registers identity on it.
func connect(t *testing.T, hub *Hub, connID, identity, name string) *Client {
	t.Helper()

	c := NewClient(connID, 0)
	hub.RegisterClient(c)
	_, ack := roundTrip(t, c, &Command{Kind: CommandRegisterUser, UserID: identity, Username: name})
	if !ack.OK {
		t.Fatalf("register %s failed: %+v", identity, ack.Error)
	}
	return c
}

func createRoom(t *testing.T, c *Client, room, roomName, name string) *RoomSnapshot {
	t.Helper()

	_, ack := roundTrip(t, c, &Command{Kind: CommandCreateRoom, Room: room, RoomName: roomName, Username: name, Create: true})
	if !ack.OK {
		t.Fatalf("create %s failed: %+v", room, ack.Error)
	}
	return ack.Snapshot
}

func joinRoom(t *testing.T, c *Client, room, name string) *RoomSnapshot {
	t.Helper()

	_, ack := roundTrip(t, c, &Command{Kind: CommandJoinRoom, Room: room, Username: name})
	if !ack.OK {
		t.Fatalf("join %s failed: %+v", room, ack.Error)
	}
	return ack.Snapshot
}

func memberNames(snap *RoomSnapshot) []string {
	out := make([]string, 0, len(snap.Users))
	for _, m := range snap.Users {
		out = append(out, m.DisplayName)
	}
	return out
}

func snapshotOf(t *testing.T, hub *Hub, room string) (RoomSnapshot, bool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap, ok, err := hub.Snapshot(ctx, room)
	if err != nil {
		t.Fatalf("snapshot %s: %v", room, err)
	}
	return snap, ok
}

type recordingAuditor struct {
	entries chan ModerationEntry
}

func newRecordingAuditor() *recordingAuditor {
	return &recordingAuditor{entries: make(chan ModerationEntry, 64)}
}

func (a *recordingAuditor) Record(e ModerationEntry) {
	select {
	case a.entries <- e:
	default:
	}
}
