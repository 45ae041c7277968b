package session

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Conn is a live transport connection registered under a room.
type Conn interface {
	ID() string
	// Send queues msg for delivery. It returns false when the connection can
	// no longer receive; the registry then drops it.
	Send(msg any) bool
	Close(code int, reason string)
}

type entry struct {
	conn     Conn
	playerID string
}

type roomConns struct {
	mu      sync.Mutex
	entries []*entry
	dead    bool
}

// Registry tracks which live connections belong to which room and player.
// Each room has its own lock; the outer map lock is only held for lookups.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomConns
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*roomConns)}
}

func (r *Registry) get(code string) *roomConns {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[code]
}

func (r *Registry) getOrCreate(code string) *roomConns {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.rooms[code]
	if !ok {
		rc = &roomConns{}
		r.rooms[code] = rc
	}
	return rc
}

// forget removes an emptied room entry, unless it was replaced meanwhile.
func (r *Registry) forget(code string, rc *roomConns) {
	r.mu.Lock()
	if r.rooms[code] == rc {
		delete(r.rooms, code)
	}
	r.mu.Unlock()
}

// Register adds conn under (code, playerID). The caller has verified the room
// exists.
func (r *Registry) Register(code, playerID string, conn Conn) {
	for {
		rc := r.getOrCreate(code)
		rc.mu.Lock()
		if rc.dead {
			rc.mu.Unlock()
			r.forget(code, rc)
			continue
		}
		rc.entries = append(rc.entries, &entry{conn: conn, playerID: playerID})
		rc.mu.Unlock()
		return
	}
}

// Deregister removes conn from the room. It reports whether conn was found.
func (r *Registry) Deregister(code string, conn Conn) bool {
	rc := r.get(code)
	if rc == nil {
		return false
	}

	rc.mu.Lock()
	found := false
	for i, e := range rc.entries {
		if e.conn == conn {
			rc.entries = append(rc.entries[:i], rc.entries[i+1:]...)
			found = true
			break
		}
	}
	empty := len(rc.entries) == 0
	if empty {
		rc.dead = true
	}
	rc.mu.Unlock()

	if empty {
		r.forget(code, rc)
	}
	return found
}

// Broadcast sends msg to every connection in the room except those of
// excludePlayer. Connections that fail to take the message are dropped.
// It returns the number of successful deliveries.
func (r *Registry) Broadcast(code string, msg any, excludePlayer string) int {
	rc := r.get(code)
	if rc == nil {
		return 0
	}

	rc.mu.Lock()
	delivered := 0
	kept := rc.entries[:0]
	for _, e := range rc.entries {
		if excludePlayer != "" && e.playerID == excludePlayer {
			kept = append(kept, e)
			continue
		}
		if !e.conn.Send(msg) {
			log.WithFields(log.Fields{"room": code, "player": e.playerID, "conn": e.conn.ID()}).
				Warn("dropping connection after failed send")
			continue
		}
		delivered++
		kept = append(kept, e)
	}
	for i := len(kept); i < len(rc.entries); i++ {
		rc.entries[i] = nil
	}
	rc.entries = kept
	empty := len(rc.entries) == 0
	if empty {
		rc.dead = true
	}
	rc.mu.Unlock()

	if empty {
		r.forget(code, rc)
	}
	return delivered
}

// SendTo delivers msg to the first connection of playerID in the room.
func (r *Registry) SendTo(code, playerID string, msg any) bool {
	rc := r.get(code)
	if rc == nil {
		return false
	}

	rc.mu.Lock()
	var target *entry
	for _, e := range rc.entries {
		if e.playerID == playerID {
			target = e
			break
		}
	}
	rc.mu.Unlock()

	if target == nil {
		return false
	}
	if !target.conn.Send(msg) {
		r.Deregister(code, target.conn)
		return false
	}
	return true
}

// Count returns the number of live connections in the room.
func (r *Registry) Count(code string) int {
	rc := r.get(code)
	if rc == nil {
		return 0
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

// CloseRoom closes and forgets every connection of the room.
func (r *Registry) CloseRoom(code string, closeCode int, reason string) {
	rc := r.get(code)
	if rc == nil {
		return
	}

	rc.mu.Lock()
	entries := rc.entries
	rc.entries = nil
	rc.dead = true
	rc.mu.Unlock()
	r.forget(code, rc)

	for _, e := range entries {
		e.conn.Close(closeCode, reason)
	}
}

// Rooms lists the codes with at least one live connection.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	return codes
}
