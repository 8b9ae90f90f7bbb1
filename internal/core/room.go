package core

import "time"

// Member is one identity's presence in one room.
type Member struct {
	Identity    string
	DisplayName string
	ConnID      string
	Typing      bool
}

// room holds metadata and members in join order.
type room struct {
	id        string
	name      string
	members   []*Member
	createdAt time.Time
}

func (r *room) index(identity string) int {
	for i, m := range r.members {
		if m.Identity == identity {
			return i
		}
	}
	return -1
}

func (r *room) copyMembers() []Member {
	out := make([]Member, len(r.members))
	for i, m := range r.members {
		out[i] = *m
	}
	return out
}

// roomRegistry is the authoritative room table. Rooms only come into
// existence through create; join never materializes a room.
type roomRegistry struct {
	rooms map[string]*room
	bans  *banLedger
}

func newRoomRegistry(bans *banLedger) *roomRegistry {
	return &roomRegistry{
		rooms: make(map[string]*room),
		bans:  bans,
	}
}

func (r *roomRegistry) exists(roomID string) bool {
	_, ok := r.rooms[roomID]
	return ok
}

// checkCreate validates a create without mutating anything.
func (r *roomRegistry) checkCreate(roomID, identity string) error {
	if r.bans.isBanned(roomID, identity) {
		return ErrBanned
	}
	if r.exists(roomID) {
		return ErrAlreadyExists
	}
	return nil
}

// create inserts a room with creator as its sole member.
func (r *roomRegistry) create(roomID, name string, creator Member, now time.Time) error {
	if err := r.checkCreate(roomID, creator.Identity); err != nil {
		return err
	}
	m := creator
	m.Typing = false
	r.rooms[roomID] = &room{
		id:        roomID,
		name:      name,
		members:   []*Member{&m},
		createdAt: now,
	}
	return nil
}

// checkJoin validates a join without mutating anything.
func (r *roomRegistry) checkJoin(roomID, identity, displayName string) error {
	rm, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if r.bans.isBanned(roomID, identity) {
		return ErrBanned
	}
	for _, m := range rm.members {
		if m.DisplayName == displayName && m.Identity != identity {
			return ErrUsernameTaken
		}
	}
	return nil
}

// join creates or refreshes the member record. added is false when the
// identity was already present.
func (r *roomRegistry) join(roomID, identity, displayName, connID string) (added bool, err error) {
	if err := r.checkJoin(roomID, identity, displayName); err != nil {
		return false, err
	}
	rm := r.rooms[roomID]
	if i := rm.index(identity); i >= 0 {
		rm.members[i].DisplayName = displayName
		rm.members[i].ConnID = connID
		return false, nil
	}
	rm.members = append(rm.members, &Member{
		Identity:    identity,
		DisplayName: displayName,
		ConnID:      connID,
	})
	return true, nil
}

// leave removes the member. remaining is the member count afterwards.
func (r *roomRegistry) leave(roomID, identity string) (removed *Member, remaining int) {
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, 0
	}
	i := rm.index(identity)
	if i < 0 {
		return nil, len(rm.members)
	}
	removed = rm.members[i]
	rm.members = append(rm.members[:i], rm.members[i+1:]...)
	return removed, len(rm.members)
}

func (r *roomRegistry) destroy(roomID string) {
	delete(r.rooms, roomID)
	r.bans.drop(roomID)
}

func (r *roomRegistry) member(roomID, identity string) (Member, bool) {
	rm, ok := r.rooms[roomID]
	if !ok {
		return Member{}, false
	}
	if i := rm.index(identity); i >= 0 {
		return *rm.members[i], true
	}
	return Member{}, false
}

// refresh updates the display name and connection of an existing member.
// An empty displayName keeps the current one.
func (r *roomRegistry) refresh(roomID, identity, displayName, connID string) bool {
	rm, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	i := rm.index(identity)
	if i < 0 {
		return false
	}
	if displayName != "" {
		rm.members[i].DisplayName = displayName
	}
	if connID != "" {
		rm.members[i].ConnID = connID
	}
	return true
}

func (r *roomRegistry) setTyping(roomID, identity string, typing bool) {
	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if i := rm.index(identity); i >= 0 {
		rm.members[i].Typing = typing
	}
}

// first returns the earliest-joined member still present.
func (r *roomRegistry) first(roomID string) (Member, bool) {
	rm, ok := r.rooms[roomID]
	if !ok || len(rm.members) == 0 {
		return Member{}, false
	}
	return *rm.members[0], true
}

func (r *roomRegistry) size(roomID string) int {
	if rm, ok := r.rooms[roomID]; ok {
		return len(rm.members)
	}
	return 0
}

// listMembers copies the room's members, admin and name. A missing room
// yields an empty member list.
func (r *roomRegistry) listMembers(roomID string, admins *adminManager) *RoomSnapshot {
	snap := &RoomSnapshot{RoomID: roomID, Users: []Member{}}
	rm, ok := r.rooms[roomID]
	if !ok {
		return snap
	}
	snap.AdminID, _ = admins.admin(roomID)
	snap.RoomName = rm.name
	snap.CreatedAt = rm.createdAt
	snap.Users = rm.copyMembers()
	return snap
}
