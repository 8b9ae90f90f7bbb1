package core

type typingEntry struct {
	connID      string
	identity    string
	displayName string
}

// typingAggregator keeps, per room, the connections currently typing in
// the order they started.
type typingAggregator struct {
	rooms map[string][]typingEntry
}

func newTypingAggregator() *typingAggregator {
	return &typingAggregator{rooms: make(map[string][]typingEntry)}
}

// set records connID as typing. Returns false when nothing changed.
func (t *typingAggregator) set(roomID, connID, identity, displayName string) bool {
	entries := t.rooms[roomID]
	for i, e := range entries {
		if e.connID == connID {
			if e.identity == identity && e.displayName == displayName {
				return false
			}
			entries[i] = typingEntry{connID: connID, identity: identity, displayName: displayName}
			return true
		}
	}
	t.rooms[roomID] = append(entries, typingEntry{connID: connID, identity: identity, displayName: displayName})
	return true
}

// clear removes connID from the room's typing set. Returns false when it
// was not typing.
func (t *typingAggregator) clear(roomID, connID string) bool {
	entries := t.rooms[roomID]
	for i, e := range entries {
		if e.connID != connID {
			continue
		}
		entries = append(entries[:i], entries[i+1:]...)
		if len(entries) == 0 {
			delete(t.rooms, roomID)
		} else {
			t.rooms[roomID] = entries
		}
		return true
	}
	return false
}

func (t *typingAggregator) typers(roomID string) []Typer {
	entries := t.rooms[roomID]
	out := make([]Typer, 0, len(entries))
	for _, e := range entries {
		out = append(out, Typer{UserID: e.identity, Username: e.displayName})
	}
	return out
}

func (t *typingAggregator) isTyping(roomID, identity string) bool {
	for _, e := range t.rooms[roomID] {
		if e.identity == identity {
			return true
		}
	}
	return false
}

func (t *typingAggregator) drop(roomID string) {
	delete(t.rooms, roomID)
}
