package service

import (
	"context"
	"time"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
)

// RoomStore persists rooms. Implemented by store.RoomStore (Postgres) and
// memstore.Store.
type RoomStore interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateRoom(ctx context.Context, room *models.Room, host *models.Player) error
	GetRoomByCode(ctx context.Context, code string) (*models.Room, error)
	UpdateStatus(ctx context.Context, code string, status models.Status) error
	ResetRoom(ctx context.Context, code string) error
	DeleteRoom(ctx context.Context, code string) error
	ListIdleRooms(ctx context.Context, before time.Time) ([]string, error)
	Touch(ctx context.Context, code string) error
}

type PlayerStore interface {
	ListPlayers(ctx context.Context, code string) ([]*models.Player, error)
	GetPlayer(ctx context.Context, code, playerID string) (*models.Player, error)
	AddPlayer(ctx context.Context, p *models.Player) error
	RemovePlayer(ctx context.Context, code, playerID string) error
	TransferHost(ctx context.Context, code, playerID string) error
}

type CardStore interface {
	ListAvailable(ctx context.Context, code string) ([]*models.Card, error)
	ListSystem(ctx context.Context) ([]*models.Card, error)
	ListForRoom(ctx context.Context, code string) ([]*models.Card, error)
	ListCustom(ctx context.Context, code string) ([]*models.Card, error)
	AddCard(ctx context.Context, content string, createdBy *string) (*models.Card, error)
	DeleteCustom(ctx context.Context, id int64, code string) (bool, error)
}

type HistoryStore interface {
	RecordDraw(ctx context.Context, code string, cardID int64) error
	ClearHistory(ctx context.Context, code string) error
	ListHistory(ctx context.Context, code string) ([]*models.DrawRecord, error)
}
