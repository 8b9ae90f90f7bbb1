package core

const defaultMaxTrackedMessages = 1000

// messageLedger remembers who sent the most recent messages of each room
// so deletions can be checked. Oldest ids are evicted first.
type messageLedger struct {
	limit int
	rooms map[string]*roomMessages
}

type roomMessages struct {
	authors map[string]string
	order   []string
}

func newMessageLedger(limit int) *messageLedger {
	if limit <= 0 {
		limit = defaultMaxTrackedMessages
	}
	return &messageLedger{limit: limit, rooms: make(map[string]*roomMessages)}
}

func (l *messageLedger) record(roomID, messageID, identity string) {
	rm := l.rooms[roomID]
	if rm == nil {
		rm = &roomMessages{authors: make(map[string]string)}
		l.rooms[roomID] = rm
	}
	if _, ok := rm.authors[messageID]; !ok {
		rm.order = append(rm.order, messageID)
	}
	rm.authors[messageID] = identity
	for len(rm.order) > l.limit {
		delete(rm.authors, rm.order[0])
		rm.order = rm.order[1:]
	}
}

func (l *messageLedger) author(roomID, messageID string) (string, bool) {
	rm := l.rooms[roomID]
	if rm == nil {
		return "", false
	}
	id, ok := rm.authors[messageID]
	return id, ok
}

func (l *messageLedger) forget(roomID, messageID string) {
	rm := l.rooms[roomID]
	if rm == nil {
		return
	}
	if _, ok := rm.authors[messageID]; !ok {
		return
	}
	delete(rm.authors, messageID)
	for i, id := range rm.order {
		if id == messageID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
}

func (l *messageLedger) drop(roomID string) {
	delete(l.rooms, roomID)
}
