package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBroadcastExcludesPlayer(t *testing.T) {
	r := NewRegistry()
	alice1, alice2, bob := newFakeConn(), newFakeConn(), newFakeConn()
	r.Register("ABC123", "alice", alice1)
	r.Register("ABC123", "alice", alice2)
	r.Register("ABC123", "bob", bob)

	delivered := r.Broadcast("ABC123", "hello", "alice")

	assert.Equal(t, 1, delivered)
	assert.Empty(t, alice1.messages())
	assert.Empty(t, alice2.messages())
	assert.Equal(t, []any{"hello"}, bob.messages())
	assert.Equal(t, 3, r.Count("ABC123"))
}

func TestRegistryDropsFailedSends(t *testing.T) {
	r := NewRegistry()
	good, bad := newFakeConn(), newFakeConn()
	bad.refuse = true
	r.Register("ABC123", "alice", good)
	r.Register("ABC123", "bob", bad)

	assert.Equal(t, 1, r.Broadcast("ABC123", "x", ""))
	assert.Equal(t, 1, r.Count("ABC123"))
	assert.False(t, r.Deregister("ABC123", bad))
}

func TestRegistryEmptyRoomIsForgotten(t *testing.T) {
	r := NewRegistry()
	c := newFakeConn()
	r.Register("ABC123", "alice", c)
	require.Equal(t, []string{"ABC123"}, r.Rooms())

	assert.True(t, r.Deregister("ABC123", c))
	assert.Empty(t, r.Rooms())
	assert.Equal(t, 0, r.Broadcast("ABC123", "x", ""))

	// the room entry is recreated on the next registration
	r.Register("ABC123", "alice", c)
	assert.Equal(t, 1, r.Count("ABC123"))
}

func TestRegistrySendTo(t *testing.T) {
	r := NewRegistry()
	alice, bob := newFakeConn(), newFakeConn()
	r.Register("ABC123", "alice", alice)
	r.Register("ABC123", "bob", bob)

	assert.True(t, r.SendTo("ABC123", "bob", "psst"))
	assert.Empty(t, alice.messages())
	assert.Equal(t, []any{"psst"}, bob.messages())
	assert.False(t, r.SendTo("ABC123", "carol", "psst"))

	bob.refuse = true
	assert.False(t, r.SendTo("ABC123", "bob", "psst"))
	assert.Equal(t, 1, r.Count("ABC123"))
}

func TestRegistryCloseRoom(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeConn(), newFakeConn()
	r.Register("ABC123", "alice", a)
	r.Register("ABC123", "bob", b)

	r.CloseRoom("ABC123", 4004, "Room closed")

	assert.True(t, a.closed)
	assert.Equal(t, 4004, a.closeCode)
	assert.True(t, b.closed)
	assert.Equal(t, 0, r.Count("ABC123"))
	assert.Empty(t, r.Rooms())
}

func TestRegistryConcurrentRegisterDeregister(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newFakeConn()
			r.Register("ABC123", "p", c)
			r.Broadcast("ABC123", "x", "")
			r.Deregister("ABC123", c)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count("ABC123"))
}

func TestRoomLocksReleaseEntries(t *testing.T) {
	l := newRoomLocks()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("ABC123")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, l.size())
}
