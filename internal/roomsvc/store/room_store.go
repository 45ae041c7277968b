package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomStore struct {
	db *pgxpool.Pool
}

func NewRoomStore(db *pgxpool.Pool) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check room code: %w", err)
	}
	return exists, nil
}

// CreateRoom inserts the room and its host roster entry in one transaction.
func (s *RoomStore) CreateRoom(ctx context.Context, room *models.Room, host *models.Player) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO rooms (code, host_id, status)
			VALUES ($1, $2, $3)
			RETURNING created_at, updated_at
		`, room.Code, room.HostID, room.Status).Scan(&room.CreatedAt, &room.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCodeTaken
			}
			return fmt.Errorf("failed to create room: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO players (room_code, player_id, nickname, is_host)
			VALUES ($1, $2, $3, TRUE)
			RETURNING joined_at
		`, room.Code, host.PlayerID, host.Nickname).Scan(&host.JoinedAt)
		if err != nil {
			return fmt.Errorf("failed to add host player: %w", err)
		}

		host.RoomCode = room.Code
		host.IsHost = true
		room.Players = []*models.Player{host}
		return nil
	})
}

// GetRoomByCode loads the room with its roster and current card.
func (s *RoomStore) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	room := &models.Room{}
	var status string
	err := s.db.QueryRow(ctx, `
		SELECT code, host_id, status, current_card_id, created_at, updated_at
		FROM rooms
		WHERE code = $1
	`, code).Scan(
		&room.Code,
		&room.HostID,
		&status,
		&room.CurrentCardID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}
	room.Status = models.Status(status)

	if room.CurrentCardID != nil {
		card, err := scanCard(s.db.QueryRow(ctx, `
			SELECT id, content, is_system, created_by, created_at
			FROM questions
			WHERE id = $1
		`, *room.CurrentCardID))
		if err != nil && !isNoRows(err) {
			return nil, fmt.Errorf("failed to get current card: %w", err)
		}
		room.CurrentCard = card
	}

	players, err := listPlayers(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	room.Players = players

	return room, nil
}

func (s *RoomStore) UpdateStatus(ctx context.Context, code string, status models.Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE rooms SET status = $2, updated_at = now()
		WHERE code = $1
	`, code, string(status))
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetRoom clears the draw history and current card and puts the room
// back into waiting.
func (s *RoomStore) ResetRoom(ctx context.Context, code string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM game_history WHERE room_code = $1`, code); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE rooms SET status = $2, current_card_id = NULL, updated_at = now()
			WHERE code = $1
		`, code, string(models.StatusWaiting))
		if err != nil {
			return fmt.Errorf("failed to reset room: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteRoom removes the room; roster and history go with it via cascade.
func (s *RoomStore) DeleteRoom(ctx context.Context, code string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RoomStore) ListIdleRooms(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT code FROM rooms WHERE updated_at < $1`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle rooms: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *RoomStore) Touch(ctx context.Context, code string) error {
	_, err := s.db.Exec(ctx, `UPDATE rooms SET updated_at = now() WHERE code = $1`, code)
	return err
}
