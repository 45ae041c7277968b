package service

import (
	"context"
	"testing"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/avvvet/cardroom-services/internal/roomsvc/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deckFixture(t *testing.T, st *memstore.Store) (*DeckService, *models.Room) {
	t.Helper()
	rooms := NewRoomService(st, st)
	room, err := rooms.CreateRoom(context.Background(), "alice", "Alice")
	require.NoError(t, err)
	return NewDeckService(st, st), room
}

func TestDrawNeverRepeatsUntilExhausted(t *testing.T) {
	st := memstore.NewSeeded()
	deck, room := deckFixture(t, st)
	ctx := context.Background()

	n := len(models.DefaultDeck)
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		card, err := deck.Draw(ctx, room)
		require.NoError(t, err)
		require.False(t, seen[card.ID], "card %d drawn twice", card.ID)
		seen[card.ID] = true
		assert.Equal(t, card.ID, room.CurrentCard.ID)
	}

	history, err := deck.History(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, history, n)

	// the next draw resets the history and starts over
	_, err = deck.Draw(ctx, room)
	require.NoError(t, err)
	history, err = deck.History(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDrawIncludesOnlyOwnRoomCards(t *testing.T) {
	st := memstore.New()
	deck, room := deckFixture(t, st)
	ctx := context.Background()

	other := "OTHER1"
	_, err := st.AddCard(ctx, "not ours", &other)
	require.NoError(t, err)
	code := room.Code
	ours, err := st.AddCard(ctx, "ours", &code)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		card, err := deck.Draw(ctx, room)
		require.NoError(t, err)
		assert.Equal(t, ours.ID, card.ID)
	}
}

func TestDrawWithNoEligibleCards(t *testing.T) {
	st := memstore.New()
	deck, room := deckFixture(t, st)

	_, err := deck.Draw(context.Background(), room)
	assert.ErrorIs(t, err, ErrNoCardsAvailable)

	_, err = deck.Switch(context.Background(), room)
	assert.ErrorIs(t, err, ErrNoCardsAvailable)
}

func TestDrawUsesPicker(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	for _, c := range []string{"one", "two", "three"} {
		_, err := st.AddCard(ctx, c, nil)
		require.NoError(t, err)
	}
	deck, room := deckFixture(t, st)
	deck.WithPicker(func(n int) int { return n - 1 })

	card, err := deck.Draw(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, "three", card.Content)

	card, err = deck.Switch(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, "two", card.Content)
}

func TestDrawOnDeletedRoom(t *testing.T) {
	st := memstore.NewSeeded()
	deck, room := deckFixture(t, st)
	require.NoError(t, st.DeleteRoom(context.Background(), room.Code))

	_, err := deck.Draw(context.Background(), room)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
