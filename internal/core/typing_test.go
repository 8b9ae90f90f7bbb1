package core

import "testing"

func TestTypingAggregatorIdempotent(t *testing.T) {
	ta := newTypingAggregator()

	if !ta.set("r", "c1", "u1", "Alice") {
		t.Fatalf("first set should change state")
	}
	if ta.set("r", "c1", "u1", "Alice") {
		t.Fatalf("repeated set should not change state")
	}
	ta.set("r", "c2", "u2", "Bob")

	typers := ta.typers("r")
	if len(typers) != 2 || typers[0].UserID != "u1" || typers[1].UserID != "u2" {
		t.Fatalf("unexpected typers: %+v", typers)
	}

	if !ta.clear("r", "c1") || ta.clear("r", "c1") {
		t.Fatalf("clear should report the change exactly once")
	}
	if ta.isTyping("r", "u1") || !ta.isTyping("r", "u2") {
		t.Fatalf("unexpected typing state")
	}
}

func TestMessageLedgerEviction(t *testing.T) {
	l := newMessageLedger(2)
	l.record("r", "m1", "u1")
	l.record("r", "m2", "u2")
	l.record("r", "m3", "u1")

	if _, ok := l.author("r", "m1"); ok {
		t.Fatalf("oldest id should be evicted")
	}
	if id, ok := l.author("r", "m3"); !ok || id != "u1" {
		t.Fatalf("unexpected author %q", id)
	}

	l.forget("r", "m2")
	l.record("r", "m4", "u2")
	if _, ok := l.author("r", "m3"); !ok {
		t.Fatalf("forget should free a slot")
	}

	l.drop("r")
	if _, ok := l.author("r", "m4"); ok {
		t.Fatalf("drop should clear the room")
	}
}

func TestSessionRegistryRooms(t *testing.T) {
	r := newSessionRegistry()
	s1 := r.attach(NewClient("c1", 1))
	s2 := r.attach(NewClient("c2", 1))
	r.register(s1, "u1", "Alice")
	r.register(s2, "u1", "")
	r.setRoom(s1, "room")
	r.setRoom(s2, "room")

	if got := r.inRoom("u1", "room", "c1"); len(got) != 1 || got[0].connID() != "c2" {
		t.Fatalf("unexpected inRoom: %+v", got)
	}
	if s2.displayName != "" {
		t.Fatalf("empty display name must not overwrite")
	}

	if _, offline := r.detach("c1"); offline {
		t.Fatalf("u1 still has c2")
	}
	if _, offline := r.detach("c2"); !offline {
		t.Fatalf("u1 should be offline")
	}
	if len(r.roomConns("room")) != 0 {
		t.Fatalf("room index not cleaned up")
	}
}
