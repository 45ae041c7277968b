package store

import (
	"context"
	"fmt"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryStore struct {
	db *pgxpool.Pool
}

func NewHistoryStore(db *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{db: db}
}

// RecordDraw appends the draw record and makes the card the room's current
// card in one transaction. A card already in the room's history is rejected
// with ErrDuplicate (unique_room_question constraint).
func (s *HistoryStore) RecordDraw(ctx context.Context, code string, cardID int64) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO game_history (room_code, question_id) VALUES ($1, $2)
		`, code, cardID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to record draw: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE rooms SET current_card_id = $2, updated_at = now() WHERE code = $1
		`, code, cardID)
		if err != nil {
			return fmt.Errorf("failed to set current card: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *HistoryStore) ClearHistory(ctx context.Context, code string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM game_history WHERE room_code = $1`, code); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (s *HistoryStore) ListHistory(ctx context.Context, code string) ([]*models.DrawRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT room_code, question_id, drawn_at
		FROM game_history
		WHERE room_code = $1
		ORDER BY drawn_at, id
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*models.DrawRecord
	for rows.Next() {
		var r models.DrawRecord
		if err := rows.Scan(&r.RoomCode, &r.CardID, &r.DrawnAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
