package store

import (
	"context"
	"fmt"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// listPlayers returns the roster in join order.
func listPlayers(ctx context.Context, q querier, code string) ([]*models.Player, error) {
	rows, err := q.Query(ctx, `
		SELECT room_code, player_id, nickname, is_host, joined_at
		FROM players
		WHERE room_code = $1
		ORDER BY joined_at, id
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var p models.Player
		err := rows.Scan(
			&p.RoomCode,
			&p.PlayerID,
			&p.Nickname,
			&p.IsHost,
			&p.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (s *PlayerStore) ListPlayers(ctx context.Context, code string) ([]*models.Player, error) {
	return listPlayers(ctx, s.db, code)
}

func (s *PlayerStore) GetPlayer(ctx context.Context, code, playerID string) (*models.Player, error) {
	p := &models.Player{}
	err := s.db.QueryRow(ctx, `
		SELECT room_code, player_id, nickname, is_host, joined_at
		FROM players
		WHERE room_code = $1 AND player_id = $2
	`, code, playerID).Scan(
		&p.RoomCode,
		&p.PlayerID,
		&p.Nickname,
		&p.IsHost,
		&p.JoinedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// AddPlayer appends a non-host roster entry. It fails with ErrDuplicate
// when the player is already in the room (unique_room_player constraint).
func (s *PlayerStore) AddPlayer(ctx context.Context, p *models.Player) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO players (room_code, player_id, nickname, is_host)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at
	`, p.RoomCode, p.PlayerID, p.Nickname, p.IsHost).Scan(&p.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to add player: %w", err)
	}

	_, err = s.db.Exec(ctx, `UPDATE rooms SET updated_at = now() WHERE code = $1`, p.RoomCode)
	return err
}

func (s *PlayerStore) RemovePlayer(ctx context.Context, code, playerID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM players WHERE room_code = $1 AND player_id = $2
	`, code, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TransferHost makes playerID the only host of the room and updates the
// room's host_id to match.
func (s *PlayerStore) TransferHost(ctx context.Context, code, playerID string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE players SET is_host = (player_id = $2) WHERE room_code = $1
		`, code, playerID); err != nil {
			return fmt.Errorf("failed to flag new host: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE rooms SET host_id = $2, updated_at = now() WHERE code = $1
		`, code, playerID)
		if err != nil {
			return fmt.Errorf("failed to update room host: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
