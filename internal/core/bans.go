package core

// banLedger is the per-room set of banned identities. Entries live as long
// as their room.
type banLedger struct {
	rooms map[string]map[string]struct{}
}

func newBanLedger() *banLedger {
	return &banLedger{rooms: make(map[string]map[string]struct{})}
}

func (b *banLedger) isBanned(roomID, identity string) bool {
	_, ok := b.rooms[roomID][identity]
	return ok
}

func (b *banLedger) ban(roomID, identity string) {
	set := b.rooms[roomID]
	if set == nil {
		set = make(map[string]struct{})
		b.rooms[roomID] = set
	}
	set[identity] = struct{}{}
}

func (b *banLedger) drop(roomID string) {
	delete(b.rooms, roomID)
}
