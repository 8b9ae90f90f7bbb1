package core

import "sort"

// session is the hub-side state of one connection.
type session struct {
	client      *Client
	identity    string
	displayName string
	room        string
}

func (s *session) connID() string { return s.client.ID }

// sessionRegistry maps identities to their live connections and tracks
// which room each connection is in. Owned by the hub loop.
type sessionRegistry struct {
	conns      map[string]*session
	byIdentity map[string]map[string]*session
	byRoom     map[string]map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		conns:      make(map[string]*session),
		byIdentity: make(map[string]map[string]*session),
		byRoom:     make(map[string]map[string]*session),
	}
}

func (r *sessionRegistry) attach(c *Client) *session {
	if s, ok := r.conns[c.ID]; ok {
		return s
	}
	s := &session{client: c}
	r.conns[c.ID] = s
	return s
}

func (r *sessionRegistry) get(connID string) *session {
	return r.conns[connID]
}

// register binds identity to the connection, moving it out of any
// previous identity's session set.
func (r *sessionRegistry) register(s *session, identity, displayName string) {
	if s.identity != identity {
		r.unlinkIdentity(s)
		s.identity = identity
		set := r.byIdentity[identity]
		if set == nil {
			set = make(map[string]*session)
			r.byIdentity[identity] = set
		}
		set[s.connID()] = s
	}
	if displayName != "" {
		s.displayName = displayName
	}
}

// detach forgets the connection. offline reports whether it was the last
// connection of its identity.
func (r *sessionRegistry) detach(connID string) (s *session, offline bool) {
	s, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	delete(r.conns, connID)
	r.setRoom(s, "")
	r.unlinkIdentity(s)
	return s, s.identity != "" && !r.online(s.identity)
}

func (r *sessionRegistry) unlinkIdentity(s *session) {
	if s.identity == "" {
		return
	}
	if set, ok := r.byIdentity[s.identity]; ok {
		delete(set, s.connID())
		if len(set) == 0 {
			delete(r.byIdentity, s.identity)
		}
	}
}

func (r *sessionRegistry) online(identity string) bool {
	return len(r.byIdentity[identity]) > 0
}

// setRoom associates the connection with roomID; empty roomID clears it.
func (r *sessionRegistry) setRoom(s *session, roomID string) {
	if s.room == roomID {
		return
	}
	if s.room != "" {
		if set, ok := r.byRoom[s.room]; ok {
			delete(set, s.connID())
			if len(set) == 0 {
				delete(r.byRoom, s.room)
			}
		}
	}
	s.room = roomID
	if roomID == "" {
		return
	}
	set := r.byRoom[roomID]
	if set == nil {
		set = make(map[string]*session)
		r.byRoom[roomID] = set
	}
	set[s.connID()] = s
}

// inRoom lists the identity's connections currently in roomID, except the
// one with connID except. Sorted by connection id.
func (r *sessionRegistry) inRoom(identity, roomID, except string) []*session {
	var out []*session
	for id, s := range r.byIdentity[identity] {
		if id == except || s.room != roomID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].connID() < out[j].connID() })
	return out
}

// roomConns lists every connection associated with roomID.
func (r *sessionRegistry) roomConns(roomID string) []*session {
	set := r.byRoom[roomID]
	out := make([]*session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

func (r *sessionRegistry) all() []*session {
	out := make([]*session, 0, len(r.conns))
	for _, s := range r.conns {
		out = append(out, s)
	}
	return out
}
