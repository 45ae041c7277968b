package models

import "time"

// Card is a prompt. System cards have an empty CreatedBy; room-scoped cards
// carry the code of the room that created them.
type Card struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	IsSystem  bool      `json:"is_system"`
	CreatedBy *string   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// EligibleFor reports whether the card may be drawn in the given room.
func (c *Card) EligibleFor(roomCode string) bool {
	if c.IsSystem {
		return true
	}
	return c.CreatedBy != nil && *c.CreatedBy == roomCode
}
