package service

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/avvvet/cardroom-services/internal/roomsvc/store"
	log "github.com/sirupsen/logrus"
)

// DeckService draws prompt cards for a room without repeating one until
// every eligible card has been shown.
type DeckService struct {
	cards   CardStore
	history HistoryStore
	intn    func(n int) int
}

func NewDeckService(cards CardStore, history HistoryStore) *DeckService {
	return &DeckService{
		cards:   cards,
		history: history,
		intn:    rand.IntN,
	}
}

// WithPicker replaces the uniform index source.
func (s *DeckService) WithPicker(intn func(n int) int) *DeckService {
	s.intn = intn
	return s
}

// Draw picks a random undrawn card for the room, records it and makes it the
// room's current card. When the room has seen every eligible card the
// history is cleared once and the pick retried; ErrNoCardsAvailable means
// the room has no eligible cards at all.
func (s *DeckService) Draw(ctx context.Context, room *models.Room) (*models.Card, error) {
	available, err := s.cards.ListAvailable(ctx, room.Code)
	if err != nil {
		return nil, err
	}

	if len(available) == 0 {
		if err := s.history.ClearHistory(ctx, room.Code); err != nil {
			return nil, err
		}
		log.WithField("room", room.Code).Info("deck exhausted, draw history reset")

		available, err = s.cards.ListAvailable(ctx, room.Code)
		if err != nil {
			return nil, err
		}
	}

	if len(available) == 0 {
		return nil, ErrNoCardsAvailable
	}

	card := available[s.intn(len(available))]

	err = s.history.RecordDraw(ctx, room.Code, card.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	id := card.ID
	room.CurrentCardID = &id
	room.CurrentCard = card
	return card, nil
}

// Switch replaces the current card. It is a plain draw: the replaced card is
// not excluded.
func (s *DeckService) Switch(ctx context.Context, room *models.Room) (*models.Card, error) {
	return s.Draw(ctx, room)
}

func (s *DeckService) History(ctx context.Context, code string) ([]*models.DrawRecord, error) {
	return s.history.ListHistory(ctx, code)
}
