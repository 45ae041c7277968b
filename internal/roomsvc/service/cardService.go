package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
)

const maxContentLength = 500

type CardService struct {
	store CardStore
}

func NewCardService(store CardStore) *CardService {
	return &CardService{store: store}
}

func (s *CardService) SystemCards(ctx context.Context) ([]*models.Card, error) {
	return s.store.ListSystem(ctx)
}

// RoomCards returns every card a room may draw: system cards plus its own.
func (s *CardService) RoomCards(ctx context.Context, code string) ([]*models.Card, error) {
	return s.store.ListForRoom(ctx, NormalizeCode(code))
}

func (s *CardService) CustomCards(ctx context.Context, code string) ([]*models.Card, error) {
	return s.store.ListCustom(ctx, NormalizeCode(code))
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxContentLength {
		return "", fmt.Errorf("%w: content must be 1-%d characters", ErrInvalidInput, maxContentLength)
	}
	return content, nil
}

// AddCustomCard adds a card usable only inside roomCode.
func (s *CardService) AddCustomCard(ctx context.Context, content, roomCode string) (*models.Card, error) {
	roomCode = NormalizeCode(roomCode)
	if roomCode == "" {
		return nil, fmt.Errorf("%w: room code required for custom questions", ErrInvalidInput)
	}
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	return s.store.AddCard(ctx, content, &roomCode)
}

func (s *CardService) AddSystemCard(ctx context.Context, content string) (*models.Card, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	return s.store.AddCard(ctx, content, nil)
}

func (s *CardService) DeleteCustomCard(ctx context.Context, id int64, roomCode string) error {
	deleted, err := s.store.DeleteCustom(ctx, id, NormalizeCode(roomCode))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrQuestionNotFound
	}
	return nil
}
