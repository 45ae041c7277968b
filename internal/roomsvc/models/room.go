package models

import "time"

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// Room is one game session, addressed by its public code.
type Room struct {
	Code          string    `json:"room_code"`
	HostID        string    `json:"host_id"`
	Status        Status    `json:"status"`
	CurrentCardID *int64    `json:"-"`
	CurrentCard   *Card     `json:"current_card"`
	Players       []*Player `json:"players"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Host returns the roster entry holding host privilege, if any.
func (r *Room) Host() *Player {
	for _, p := range r.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// Player returns the roster entry for playerID, if present.
func (r *Room) Player(playerID string) *Player {
	for _, p := range r.Players {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) IsHost(playerID string) bool {
	return r.HostID == playerID
}
