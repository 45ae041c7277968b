package models

import "time"

// DrawRecord marks a card as shown in a room since the last history reset.
type DrawRecord struct {
	RoomCode string    `json:"room_code"`
	CardID   int64     `json:"card_id"`
	DrawnAt  time.Time `json:"drawn_at"`
}
