package models

import "time"

type Player struct {
	RoomCode string    `json:"-"`
	PlayerID string    `json:"player_id"` // opaque id supplied by the client
	Nickname string    `json:"nickname"`
	IsHost   bool      `json:"is_host"`
	JoinedAt time.Time `json:"joined_at"`
}
