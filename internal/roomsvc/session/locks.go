package session

import "sync"

type refMutex struct {
	sync.Mutex
	refs int
}

// roomLocks hands out one mutex per room code so that mutations of a room
// are serialized without blocking unrelated rooms.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*refMutex)}
}

// Lock acquires the room's mutex and returns its release func.
func (l *roomLocks) Lock(code string) func() {
	l.mu.Lock()
	m, ok := l.locks[code]
	if !ok {
		m = &refMutex{}
		l.locks[code] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()

		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, code)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
