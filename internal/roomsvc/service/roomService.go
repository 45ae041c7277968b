package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/avvvet/cardroom-services/internal/roomsvc/store"
	log "github.com/sirupsen/logrus"
)

const (
	CodeLength = 6
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxIDLength = 50
)

type RoomService struct {
	rooms   RoomStore
	players PlayerStore
	newCode func() (string, error)
}

func NewRoomService(rooms RoomStore, players PlayerStore) *RoomService {
	return &RoomService{
		rooms:   rooms,
		players: players,
		newCode: GenerateCode,
	}
}

// WithCodeGenerator replaces the room code source.
func (s *RoomService) WithCodeGenerator(gen func() (string, error)) *RoomService {
	s.newCode = gen
	return s
}

// GenerateCode returns a random uppercase alphanumeric room code.
func GenerateCode() (string, error) {
	// 252 is the largest multiple of len(codeChars) below 256
	const limit = 256 - 256%len(codeChars)

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeChars[int(b)%len(codeChars)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}

// NormalizeCode upper-cases a client supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validID(id string) bool {
	return id != "" && len(id) <= maxIDLength
}

// CreateRoom opens a room with hostID as its first player and host. It keeps
// drawing codes until one is free.
func (s *RoomService) CreateRoom(ctx context.Context, hostID, hostNickname string) (*models.Room, error) {
	if !validID(hostID) || !validID(hostNickname) {
		return nil, fmt.Errorf("%w: host id and nickname are required", ErrInvalidInput)
	}

	for {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}

		exists, err := s.rooms.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Debugf("room code %s collided, retrying", code)
			continue
		}

		room := &models.Room{
			Code:   code,
			HostID: hostID,
			Status: models.StatusWaiting,
		}
		host := &models.Player{
			PlayerID: hostID,
			Nickname: hostNickname,
		}
		err = s.rooms.CreateRoom(ctx, room, host)
		if errors.Is(err, store.ErrCodeTaken) {
			log.Debugf("room code %s taken concurrently, retrying", code)
			continue
		}
		if err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{"room": code, "host": hostID}).Info("room created")
		return room, nil
	}
}

func (s *RoomService) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.rooms.GetRoomByCode(ctx, NormalizeCode(code))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRoom adds playerID to the roster. Joining again with the same id
// returns the existing entry; created reports whether a new entry was made.
func (s *RoomService) JoinRoom(ctx context.Context, code, playerID, nickname string) (player *models.Player, created bool, err error) {
	if !validID(playerID) || !validID(nickname) {
		return nil, false, fmt.Errorf("%w: player id and nickname are required", ErrInvalidInput)
	}

	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if room.Status == models.StatusEnded {
		return nil, false, ErrGameEnded
	}

	if existing := room.Player(playerID); existing != nil {
		return existing, false, nil
	}

	player = &models.Player{
		RoomCode: room.Code,
		PlayerID: playerID,
		Nickname: nickname,
	}
	err = s.players.AddPlayer(ctx, player)
	if errors.Is(err, store.ErrDuplicate) {
		existing, err := s.players.GetPlayer(ctx, room.Code, playerID)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}

	log.WithFields(log.Fields{"room": room.Code, "player": playerID}).Info("player joined")
	return player, true, nil
}

type LeaveResult struct {
	Left        bool
	RoomDeleted bool
	HostID      string
	Remaining   int
}

// LeaveRoom removes playerID from the roster. The room is destroyed when the
// roster empties; a departing host hands privilege to the earliest remaining
// player.
func (s *RoomService) LeaveRoom(ctx context.Context, code, playerID string) (LeaveResult, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return LeaveResult{}, err
	}

	leaving := room.Player(playerID)
	if leaving == nil {
		return LeaveResult{HostID: room.HostID, Remaining: len(room.Players)}, nil
	}

	if err := s.players.RemovePlayer(ctx, room.Code, playerID); err != nil {
		return LeaveResult{}, err
	}

	remaining, err := s.players.ListPlayers(ctx, room.Code)
	if err != nil {
		return LeaveResult{}, err
	}

	logCtx := log.WithFields(log.Fields{"room": room.Code, "player": playerID})

	if len(remaining) == 0 {
		if err := s.rooms.DeleteRoom(ctx, room.Code); err != nil && !errors.Is(err, store.ErrNotFound) {
			return LeaveResult{}, err
		}
		logCtx.Info("last player left, room deleted")
		return LeaveResult{Left: true, RoomDeleted: true}, nil
	}

	hostID := room.HostID
	if leaving.IsHost || room.HostID == playerID {
		hostID = remaining[0].PlayerID
		if err := s.players.TransferHost(ctx, room.Code, hostID); err != nil {
			return LeaveResult{}, err
		}
		logCtx.WithField("new_host", hostID).Info("host left, privilege transferred")
	}

	logCtx.Info("player left")
	return LeaveResult{Left: true, HostID: hostID, Remaining: len(remaining)}, nil
}

func (s *RoomService) StartGame(ctx context.Context, code string) error {
	return s.setStatus(ctx, code, models.StatusPlaying)
}

func (s *RoomService) EndGame(ctx context.Context, code string) error {
	return s.setStatus(ctx, code, models.StatusEnded)
}

// RestartGame clears the draw history and current card and returns the room
// to waiting.
func (s *RoomService) RestartGame(ctx context.Context, code string) error {
	err := s.rooms.ResetRoom(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomNotFound
	}
	return err
}

func (s *RoomService) setStatus(ctx context.Context, code string, status models.Status) error {
	err := s.rooms.UpdateStatus(ctx, code, status)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomNotFound
	}
	return err
}

// DeleteRoom destroys a room regardless of its roster.
func (s *RoomService) DeleteRoom(ctx context.Context, code string) error {
	err := s.rooms.DeleteRoom(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomNotFound
	}
	return err
}

func (s *RoomService) IdleRooms(ctx context.Context, before time.Time) ([]string, error) {
	return s.rooms.ListIdleRooms(ctx, before)
}

func (s *RoomService) Touch(ctx context.Context, code string) error {
	return s.rooms.Touch(ctx, code)
}
