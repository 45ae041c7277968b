package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/cardroom-services/internal/comm"
	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/avvvet/cardroom-services/internal/roomsvc/service"
	"github.com/avvvet/cardroom-services/internal/roomsvc/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []comm.RoomEvent
}

func (p *recordingPublisher) PublishRoomEvent(ev comm.RoomEvent) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store *memstore.Store
	rooms *service.RoomService
	coord *Coordinator
	pub   *recordingPublisher
}

func newFixture(t *testing.T, st *memstore.Store) *fixture {
	t.Helper()
	pub := &recordingPublisher{}
	rooms := service.NewRoomService(st, st)
	deck := service.NewDeckService(st, st)
	return &fixture{
		store: st,
		rooms: rooms,
		coord: NewCoordinator(rooms, deck, NewRegistry(), pub),
		pub:   pub,
	}
}

// openRoom creates a room hosted by alice, joins bob and connects both.
func (f *fixture) openRoom(t *testing.T) (string, *fakeConn, *fakeConn) {
	t.Helper()
	ctx := context.Background()

	room, err := f.rooms.CreateRoom(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = f.coord.Join(ctx, room.Code, "bob", "Bob")
	require.NoError(t, err)

	alice, bob := newFakeConn(), newFakeConn()
	_, err = f.coord.Connect(ctx, room.Code, "alice", alice)
	require.NoError(t, err)
	_, err = f.coord.Connect(ctx, room.Code, "bob", bob)
	require.NoError(t, err)
	return room.Code, alice, bob
}

func (f *fixture) send(t *testing.T, code, playerID string, conn *fakeConn, raw string) {
	t.Helper()
	require.NoError(t, f.coord.HandleMessage(context.Background(), code, playerID, conn, []byte(raw)))
}

func requireError(t *testing.T, conn *fakeConn, message string) {
	t.Helper()
	last, ok := conn.last().(comm.Error)
	require.True(t, ok, "expected an error message, got %#v", conn.last())
	assert.Equal(t, comm.EvtError, last.Type)
	assert.Equal(t, message, last.Message)
}

func TestConnectSendsSnapshotAndAnnounces(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	_, alice, bob := f.openRoom(t)

	aliceMsgs := alice.messages()
	require.Len(t, aliceMsgs, 2)
	state, ok := aliceMsgs[0].(comm.GameState)
	require.True(t, ok)
	assert.Equal(t, models.StatusWaiting, state.Status)
	assert.Nil(t, state.CurrentCard)
	assert.Len(t, state.Players, 2)

	connected, ok := aliceMsgs[1].(comm.PlayerConnected)
	require.True(t, ok)
	assert.Equal(t, "bob", connected.PlayerID)
	assert.Equal(t, 2, connected.PlayerCount)

	bobMsgs := bob.messages()
	require.Len(t, bobMsgs, 1)
	_, ok = bobMsgs[0].(comm.GameState)
	assert.True(t, ok)
}

func TestConnectUnknownRoom(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	conn := newFakeConn()

	_, err := f.coord.Connect(context.Background(), "nope00", "alice", conn)

	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	assert.Empty(t, conn.messages())
	assert.Equal(t, 0, f.coord.Registry().Count("NOPE00"))
}

func TestHostStartsAndAnyoneDraws(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	code, alice, bob := f.openRoom(t)
	alice.reset()
	bob.reset()

	f.send(t, code, "bob", bob, `{"type":"start_game"}`)
	requireError(t, bob, "Only the host can start the game")
	assert.Empty(t, alice.messages())

	f.send(t, code, "bob", bob, `{"type":"draw_card"}`)
	requireError(t, bob, "Game is not in progress")

	f.send(t, code, "alice", alice, `{"type":"start_game"}`)
	for _, c := range []*fakeConn{alice, bob} {
		started, ok := c.last().(comm.StatusChanged)
		require.True(t, ok)
		assert.Equal(t, comm.EvtGameStarted, started.Type)
		assert.Equal(t, models.StatusPlaying, started.Status)
	}

	f.send(t, code, "bob", bob, `{"type":"draw_card"}`)
	drawnA, ok := alice.last().(comm.CardDrawn)
	require.True(t, ok)
	drawnB, ok := bob.last().(comm.CardDrawn)
	require.True(t, ok)
	assert.Equal(t, "bob", drawnA.DrawnBy)
	assert.Equal(t, drawnA.Card.ID, drawnB.Card.ID)

	room, err := f.rooms.GetRoom(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, room.CurrentCard)
	assert.Equal(t, drawnA.Card.ID, room.CurrentCard.ID)

	f.send(t, code, "alice", alice, `{"type":"switch_card"}`)
	switched, ok := bob.last().(comm.CardSwitched)
	require.True(t, ok)
	assert.Equal(t, "alice", switched.SwitchedBy)
	assert.NotEqual(t, drawnA.Card.ID, switched.Card.ID)

	assert.Equal(t, []string{comm.EvtPlayerJoined, comm.EvtGameStarted, comm.EvtCardDrawn, comm.EvtCardSwitched}, f.pub.types())
}

func TestDrawResetsHistoryWhenDeckIsExhausted(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	_, err := st.AddCard(ctx, "first", nil)
	require.NoError(t, err)
	_, err = st.AddCard(ctx, "second", nil)
	require.NoError(t, err)

	f := newFixture(t, st)
	code, alice, _ := f.openRoom(t)
	f.send(t, code, "alice", alice, `{"type":"start_game"}`)

	seen := map[int64]bool{}
	for i := 0; i < 2; i++ {
		f.send(t, code, "alice", alice, `{"type":"draw_card"}`)
		drawn, ok := alice.last().(comm.CardDrawn)
		require.True(t, ok)
		seen[drawn.Card.ID] = true
	}
	assert.Len(t, seen, 2)

	f.send(t, code, "alice", alice, `{"type":"draw_card"}`)
	drawn, ok := alice.last().(comm.CardDrawn)
	require.True(t, ok)
	assert.True(t, seen[drawn.Card.ID])

	history, err := st.ListHistory(ctx, code)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDrawWithEmptyDeck(t *testing.T) {
	f := newFixture(t, memstore.New())
	code, alice, bob := f.openRoom(t)
	f.send(t, code, "alice", alice, `{"type":"start_game"}`)
	bob.reset()

	f.send(t, code, "alice", alice, `{"type":"draw_card"}`)

	requireError(t, alice, "No cards available")
	assert.Empty(t, bob.messages())
}

func TestRestartClearsRound(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	ctx := context.Background()
	code, alice, bob := f.openRoom(t)

	f.send(t, code, "alice", alice, `{"type":"start_game"}`)
	f.send(t, code, "alice", alice, `{"type":"draw_card"}`)
	f.send(t, code, "alice", alice, `{"type":"draw_card"}`)

	f.send(t, code, "bob", bob, `{"type":"restart_game"}`)
	requireError(t, bob, "Only the host can restart the game")

	f.send(t, code, "alice", alice, `{"type":"restart_game"}`)
	restarted, ok := bob.last().(comm.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, comm.EvtGameRestarted, restarted.Type)
	assert.Equal(t, models.StatusWaiting, restarted.Status)

	room, err := f.rooms.GetRoom(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, room.Status)
	assert.Nil(t, room.CurrentCard)
	history, err := f.store.ListHistory(ctx, code)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEndGameThenJoinIsRejected(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	code, alice, bob := f.openRoom(t)

	f.send(t, code, "bob", bob, `{"type":"end_game"}`)
	requireError(t, bob, "Only the host can end the game")

	f.send(t, code, "alice", alice, `{"type":"end_game"}`)
	ended, ok := bob.last().(comm.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, models.StatusEnded, ended.Status)

	_, err := f.coord.Join(context.Background(), code, "carol", "Carol")
	assert.ErrorIs(t, err, service.ErrGameEnded)
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	code, alice, bob := f.openRoom(t)
	bob.reset()

	f.send(t, code, "alice", alice, `not json`)
	requireError(t, alice, "Invalid message format")

	f.send(t, code, "alice", alice, `{"type":"dance"}`)
	requireError(t, alice, "Unknown message type: dance")

	assert.Empty(t, bob.messages())
}

func TestJoinIsIdempotent(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	code, alice, _ := f.openRoom(t)
	alice.reset()

	room, err := f.coord.Join(context.Background(), code, "bob", "Bobby")
	require.NoError(t, err)

	assert.Len(t, room.Players, 2)
	assert.Equal(t, "Bob", room.Player("bob").Nickname)
	assert.Empty(t, alice.messages())
}

func TestJoinAnnouncesToOthers(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	code, alice, _ := f.openRoom(t)
	alice.reset()

	_, err := f.coord.Join(context.Background(), code, "carol", "Carol")
	require.NoError(t, err)

	joined, ok := alice.last().(comm.PlayerJoined)
	require.True(t, ok)
	assert.Equal(t, "carol", joined.Player.PlayerID)
	assert.Equal(t, 3, joined.PlayerCount)
}

func TestHostLeaveTransfersPrivilege(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	ctx := context.Background()
	code, alice, bob := f.openRoom(t)

	res, err := f.coord.Leave(ctx, code, "alice")
	require.NoError(t, err)
	assert.True(t, res.Left)
	assert.False(t, res.RoomDeleted)
	assert.Equal(t, "bob", res.HostID)

	left, ok := bob.last().(comm.PlayerLeft)
	require.True(t, ok)
	assert.Equal(t, "alice", left.PlayerID)
	assert.Equal(t, 1, left.PlayerCount)
	assert.Equal(t, "bob", left.HostID)

	// alice's socket is still open and now sees bob as host
	f.coord.Disconnect(ctx, code, "alice", alice)

	f.send(t, code, "bob", bob, `{"type":"start_game"}`)
	started, ok := bob.last().(comm.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, comm.EvtGameStarted, started.Type)
}

func TestLastLeaveDestroysRoom(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	ctx := context.Background()
	code, alice, bob := f.openRoom(t)

	_, err := f.coord.Leave(ctx, code, "alice")
	require.NoError(t, err)
	res, err := f.coord.Leave(ctx, code, "bob")
	require.NoError(t, err)
	assert.True(t, res.RoomDeleted)

	for _, c := range []*fakeConn{alice, bob} {
		assert.True(t, c.closed)
		assert.Equal(t, comm.CloseRoomNotFound, c.closeCode)
	}
	_, err = f.rooms.GetRoom(ctx, code)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	assert.Equal(t, 0, f.coord.Registry().Count(code))

	_, err = f.coord.Leave(ctx, code, "bob")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}

func TestLeaveUnknownPlayerIsNoop(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	code, alice, _ := f.openRoom(t)
	alice.reset()

	res, err := f.coord.Leave(context.Background(), code, "mallory")
	require.NoError(t, err)
	assert.False(t, res.Left)
	assert.Equal(t, "alice", res.HostID)
	assert.Empty(t, alice.messages())
}

func TestDisconnectAnnouncesButKeepsRoster(t *testing.T) {
	f := newFixture(t, memstore.NewSeeded())
	ctx := context.Background()
	code, alice, bob := f.openRoom(t)

	f.coord.Disconnect(ctx, code, "bob", bob)

	gone, ok := alice.last().(comm.PlayerDisconnected)
	require.True(t, ok)
	assert.Equal(t, "bob", gone.PlayerID)
	assert.Equal(t, 1, f.coord.Registry().Count(code))

	room, err := f.rooms.GetRoom(ctx, code)
	require.NoError(t, err)
	assert.Len(t, room.Players, 2)
}

func TestReapIdleSkipsConnectedRooms(t *testing.T) {
	st := memstore.NewSeeded()
	f := newFixture(t, st)
	ctx := context.Background()

	past := time.Now().Add(-2 * time.Hour)
	st.SetClock(func() time.Time { return past })
	idle, err := f.rooms.CreateRoom(ctx, "carol", "Carol")
	require.NoError(t, err)
	busy, err := f.rooms.CreateRoom(ctx, "dave", "Dave")
	require.NoError(t, err)
	st.SetClock(time.Now)

	// Connect touches the room, so register directly to keep it stale.
	conn := newFakeConn()
	f.coord.Registry().Register(busy.Code, "dave", conn)

	reaped, err := f.coord.ReapIdle(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	_, err = f.rooms.GetRoom(ctx, idle.Code)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
	_, err = f.rooms.GetRoom(ctx, busy.Code)
	assert.NoError(t, err)
	assert.False(t, conn.closed)
}
