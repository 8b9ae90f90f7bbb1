package core

import "time"

// DefaultFailoverGrace absorbs page refreshes before an admin handover.
const DefaultFailoverGrace = 3 * time.Second

// failoverCommand is posted into the hub loop when a grace timer fires.
type failoverCommand struct {
	room       string
	generation uint64
}

type pendingFailover struct {
	previous   string
	generation uint64
	timer      *time.Timer
}

// adminManager owns the admin identity per room and the failover timers.
// Timers never touch this struct: they only call fire, and the hub applies
// the result through take, so a cancelled handle is simply not found.
type adminManager struct {
	grace      time.Duration
	admins     map[string]string
	pending    map[string]*pendingFailover
	generation uint64
	fire       func(failoverCommand)
}

func newAdminManager(grace time.Duration, fire func(failoverCommand)) *adminManager {
	if grace <= 0 {
		grace = DefaultFailoverGrace
	}
	return &adminManager{
		grace:   grace,
		admins:  make(map[string]string),
		pending: make(map[string]*pendingFailover),
		fire:    fire,
	}
}

func (a *adminManager) admin(roomID string) (string, bool) {
	id, ok := a.admins[roomID]
	return id, ok
}

// assignIfNone makes identity the admin of a room that has none.
func (a *adminManager) assignIfNone(roomID, identity string) bool {
	if _, ok := a.admins[roomID]; ok {
		return false
	}
	a.admins[roomID] = identity
	return true
}

// transfer hands admin from the current admin to another identity.
func (a *adminManager) transfer(roomID, from, to string) error {
	if cur, ok := a.admins[roomID]; !ok || cur != from {
		return ErrNotAllowed
	}
	a.set(roomID, to)
	return nil
}

// set overrides the admin and invalidates any pending failover.
func (a *adminManager) set(roomID, identity string) {
	a.cancel(roomID)
	a.admins[roomID] = identity
}

// schedule starts the grace timer for a departed admin, replacing any
// earlier one for the room.
func (a *adminManager) schedule(roomID, previous string) {
	a.cancel(roomID)
	a.generation++
	cmd := failoverCommand{room: roomID, generation: a.generation}
	p := &pendingFailover{
		previous:   previous,
		generation: a.generation,
	}
	p.timer = time.AfterFunc(a.grace, func() { a.fire(cmd) })
	a.pending[roomID] = p
}

func (a *adminManager) cancel(roomID string) bool {
	p, ok := a.pending[roomID]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(a.pending, roomID)
	return true
}

// pendingFor reports the admin whose failover is pending in the room.
func (a *adminManager) pendingFor(roomID string) (string, bool) {
	p, ok := a.pending[roomID]
	if !ok {
		return "", false
	}
	return p.previous, true
}

// take claims a fired timer. Stale generations are rejected.
func (a *adminManager) take(cmd failoverCommand) (*pendingFailover, bool) {
	p, ok := a.pending[cmd.room]
	if !ok || p.generation != cmd.generation {
		return nil, false
	}
	delete(a.pending, cmd.room)
	return p, true
}

// drop forgets everything about the room.
func (a *adminManager) drop(roomID string) {
	a.cancel(roomID)
	delete(a.admins, roomID)
}

func (a *adminManager) stopAll() {
	for roomID := range a.pending {
		a.cancel(roomID)
	}
}
