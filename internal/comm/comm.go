package comm

import (
	"time"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
)

// inbound control messages
const (
	MsgStartGame   = "start_game"
	MsgDrawCard    = "draw_card"
	MsgSwitchCard  = "switch_card"
	MsgEndGame     = "end_game"
	MsgRestartGame = "restart_game"
)

// outbound event types
const (
	EvtGameState          = "game_state"
	EvtPlayerConnected    = "player_connected"
	EvtPlayerDisconnected = "player_disconnected"
	EvtPlayerJoined       = "player_joined"
	EvtPlayerLeft         = "player_left"
	EvtGameStarted        = "game_started"
	EvtGameEnded          = "game_ended"
	EvtGameRestarted      = "game_restarted"
	EvtCardDrawn          = "card_drawn"
	EvtCardSwitched       = "card_switched"
	EvtRoomClosed         = "room_closed"
	EvtError              = "error"
)

// CloseRoomNotFound is the websocket close code sent when the room in the
// connection path does not exist (or has been destroyed).
const CloseRoomNotFound = 4004

type ClientMessage struct {
	Type string `json:"type"` // e.g. "start_game", "draw_card"
}

type GameState struct {
	Type        string           `json:"type"`
	Status      models.Status    `json:"status"`
	CurrentCard *models.Card     `json:"current_card"`
	Players     []*models.Player `json:"players"`
}

type PlayerConnected struct {
	Type        string `json:"type"`
	PlayerID    string `json:"player_id"`
	PlayerCount int    `json:"player_count"`
}

type PlayerDisconnected struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

type PlayerJoined struct {
	Type        string         `json:"type"`
	Player      *models.Player `json:"player"`
	PlayerCount int            `json:"player_count"`
}

type PlayerLeft struct {
	Type        string `json:"type"`
	PlayerID    string `json:"player_id"`
	PlayerCount int    `json:"player_count"`
	HostID      string `json:"host_id"`
}

// StatusChanged carries game_started, game_ended and game_restarted.
type StatusChanged struct {
	Type   string        `json:"type"`
	Status models.Status `json:"status"`
}

type CardDrawn struct {
	Type    string       `json:"type"`
	Card    *models.Card `json:"card"`
	DrawnBy string       `json:"drawn_by"`
}

type CardSwitched struct {
	Type       string       `json:"type"`
	Card       *models.Card `json:"card"`
	SwitchedBy string       `json:"switched_by"`
}

type RoomClosed struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) Error {
	return Error{Type: EvtError, Message: message}
}

// RoomEvent is the envelope published on the event bus for every room
// broadcast.
type RoomEvent struct {
	Type     string        `json:"type" bson:"type"`
	RoomCode string        `json:"room_code" bson:"room_code"`
	PlayerID string        `json:"player_id,omitempty" bson:"player_id,omitempty"`
	CardID   int64         `json:"card_id,omitempty" bson:"card_id,omitempty"`
	Status   models.Status `json:"status,omitempty" bson:"status,omitempty"`
	Source   string        `json:"source" bson:"source"`
	At       time.Time     `json:"at" bson:"at"`
}
