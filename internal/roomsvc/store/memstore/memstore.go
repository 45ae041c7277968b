// Package memstore is an in-process implementation of the room service
// stores, used when no Postgres URL is configured and by tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/avvvet/cardroom-services/internal/roomsvc/store"
)

type roomRecord struct {
	room    models.Room
	players []*models.Player
	history []*models.DrawRecord
}

type Store struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID int64
	cards  map[int64]*models.Card
	rooms  map[string]*roomRecord
}

func New() *Store {
	return &Store{
		now:   time.Now,
		cards: make(map[int64]*models.Card),
		rooms: make(map[string]*roomRecord),
	}
}

// NewSeeded returns a store holding the default system deck.
func NewSeeded() *Store {
	s := New()
	for _, content := range models.DefaultDeck {
		s.AddCard(context.Background(), content, nil)
	}
	return s
}

// SetClock overrides the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func copyCard(c *models.Card) *models.Card {
	cp := *c
	if c.CreatedBy != nil {
		owner := *c.CreatedBy
		cp.CreatedBy = &owner
	}
	return &cp
}

func copyPlayers(in []*models.Player) []*models.Player {
	out := make([]*models.Player, 0, len(in))
	for _, p := range in {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room, host *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.Code]; ok {
		return store.ErrCodeTaken
	}

	now := s.now()
	room.CreatedAt = now
	room.UpdatedAt = now
	host.RoomCode = room.Code
	host.IsHost = true
	host.JoinedAt = now
	room.Players = []*models.Player{host}

	rec := &roomRecord{room: *room}
	rec.room.Players = nil
	rec.room.CurrentCard = nil
	rec.players = copyPlayers(room.Players)
	s.rooms[room.Code] = rec
	return nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rooms[code]
	if !ok {
		return nil, store.ErrNotFound
	}

	room := rec.room
	if room.CurrentCardID != nil {
		id := *room.CurrentCardID
		room.CurrentCardID = &id
		if card, ok := s.cards[id]; ok {
			room.CurrentCard = copyCard(card)
		}
	}
	room.Players = copyPlayers(rec.players)
	return &room, nil
}

func (s *Store) UpdateStatus(ctx context.Context, code string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[code]
	if !ok {
		return store.ErrNotFound
	}
	rec.room.Status = status
	rec.room.UpdatedAt = s.now()
	return nil
}

func (s *Store) ResetRoom(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[code]
	if !ok {
		return store.ErrNotFound
	}
	rec.history = nil
	rec.room.CurrentCardID = nil
	rec.room.Status = models.StatusWaiting
	rec.room.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[code]; !ok {
		return store.ErrNotFound
	}
	delete(s.rooms, code)
	return nil
}

func (s *Store) ListIdleRooms(ctx context.Context, before time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var codes []string
	for code, rec := range s.rooms {
		if rec.room.UpdatedAt.Before(before) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *Store) ListPlayers(ctx context.Context, code string) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rooms[code]
	if !ok {
		return nil, nil
	}
	return copyPlayers(rec.players), nil
}

func (s *Store) GetPlayer(ctx context.Context, code, playerID string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rooms[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, p := range rec.players {
		if p.PlayerID == playerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) AddPlayer(ctx context.Context, p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[p.RoomCode]
	if !ok {
		return store.ErrNotFound
	}
	for _, existing := range rec.players {
		if existing.PlayerID == p.PlayerID {
			return store.ErrDuplicate
		}
	}

	now := s.now()
	p.JoinedAt = now
	cp := *p
	rec.players = append(rec.players, &cp)
	rec.room.UpdatedAt = now
	return nil
}

func (s *Store) RemovePlayer(ctx context.Context, code, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[code]
	if !ok {
		return store.ErrNotFound
	}
	for i, p := range rec.players {
		if p.PlayerID == playerID {
			rec.players = append(rec.players[:i], rec.players[i+1:]...)
			rec.room.UpdatedAt = s.now()
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) TransferHost(ctx context.Context, code, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[code]
	if !ok {
		return store.ErrNotFound
	}
	for _, p := range rec.players {
		p.IsHost = p.PlayerID == playerID
	}
	rec.room.HostID = playerID
	rec.room.UpdatedAt = s.now()
	return nil
}

func (s *Store) sortedCards(keep func(*models.Card) bool) []*models.Card {
	cards := make([]*models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if keep(c) {
			cards = append(cards, copyCard(c))
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards
}

func (s *Store) ListAvailable(ctx context.Context, code string) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drawn := make(map[int64]bool)
	if rec, ok := s.rooms[code]; ok {
		for _, h := range rec.history {
			drawn[h.CardID] = true
		}
	}
	return s.sortedCards(func(c *models.Card) bool {
		return c.EligibleFor(code) && !drawn[c.ID]
	}), nil
}

func (s *Store) ListSystem(ctx context.Context) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCards(func(c *models.Card) bool { return c.IsSystem }), nil
}

func (s *Store) ListForRoom(ctx context.Context, code string) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCards(func(c *models.Card) bool { return c.EligibleFor(code) }), nil
}

func (s *Store) ListCustom(ctx context.Context, code string) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedCards(func(c *models.Card) bool {
		return !c.IsSystem && c.CreatedBy != nil && *c.CreatedBy == code
	}), nil
}

func (s *Store) AddCard(ctx context.Context, content string, createdBy *string) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	card := &models.Card{
		ID:        s.nextID,
		Content:   content,
		IsSystem:  createdBy == nil,
		CreatedAt: s.now(),
	}
	if createdBy != nil {
		owner := *createdBy
		card.CreatedBy = &owner
	}
	s.cards[card.ID] = card
	return copyCard(card), nil
}

func (s *Store) DeleteCustom(ctx context.Context, id int64, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[id]
	if !ok || card.IsSystem || card.CreatedBy == nil || *card.CreatedBy != code {
		return false, nil
	}
	delete(s.cards, id)

	// mirror ON DELETE CASCADE / SET NULL
	for _, rec := range s.rooms {
		if rec.room.CurrentCardID != nil && *rec.room.CurrentCardID == id {
			rec.room.CurrentCardID = nil
		}
		kept := rec.history[:0]
		for _, h := range rec.history {
			if h.CardID != id {
				kept = append(kept, h)
			}
		}
		rec.history = kept
	}
	return true, nil
}

func (s *Store) RecordDraw(ctx context.Context, code string, cardID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[code]
	if !ok {
		return store.ErrNotFound
	}
	for _, h := range rec.history {
		if h.CardID == cardID {
			return store.ErrDuplicate
		}
	}

	now := s.now()
	rec.history = append(rec.history, &models.DrawRecord{RoomCode: code, CardID: cardID, DrawnAt: now})
	id := cardID
	rec.room.CurrentCardID = &id
	rec.room.UpdatedAt = now
	return nil
}

func (s *Store) ClearHistory(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.rooms[code]; ok {
		rec.history = nil
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, code string) ([]*models.DrawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rooms[code]
	if !ok {
		return nil, nil
	}
	out := make([]*models.DrawRecord, 0, len(rec.history))
	for _, h := range rec.history {
		cp := *h
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) Touch(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rooms[code]; ok {
		rec.room.UpdatedAt = s.now()
	}
	return nil
}
