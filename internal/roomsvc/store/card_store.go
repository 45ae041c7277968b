package store

import (
	"context"
	"fmt"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

const cardColumns = `id, content, is_system, created_by, created_at`

func scanCard(row pgx.Row) (*models.Card, error) {
	var card models.Card
	err := row.Scan(
		&card.ID,
		&card.Content,
		&card.IsSystem,
		&card.CreatedBy,
		&card.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *CardStore) queryCards(ctx context.Context, query string, args ...any) ([]*models.Card, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// ListAvailable returns the cards eligible for the room that have not been
// drawn since its last history reset.
func (s *CardStore) ListAvailable(ctx context.Context, code string) ([]*models.Card, error) {
	return s.queryCards(ctx, `
		SELECT `+cardColumns+`
		FROM questions q
		WHERE (q.is_system OR q.created_by = $1)
		  AND NOT EXISTS (
			SELECT 1 FROM game_history h
			WHERE h.room_code = $1 AND h.question_id = q.id
		  )
		ORDER BY q.id
	`, code)
}

func (s *CardStore) ListSystem(ctx context.Context) ([]*models.Card, error) {
	return s.queryCards(ctx, `
		SELECT `+cardColumns+` FROM questions WHERE is_system ORDER BY id
	`)
}

func (s *CardStore) ListForRoom(ctx context.Context, code string) ([]*models.Card, error) {
	return s.queryCards(ctx, `
		SELECT `+cardColumns+` FROM questions
		WHERE is_system OR created_by = $1
		ORDER BY id
	`, code)
}

func (s *CardStore) ListCustom(ctx context.Context, code string) ([]*models.Card, error) {
	return s.queryCards(ctx, `
		SELECT `+cardColumns+` FROM questions
		WHERE created_by = $1 AND NOT is_system
		ORDER BY id
	`, code)
}

// AddCard inserts a prompt. A nil createdBy makes it a system card.
func (s *CardStore) AddCard(ctx context.Context, content string, createdBy *string) (*models.Card, error) {
	card, err := scanCard(s.db.QueryRow(ctx, `
		INSERT INTO questions (content, is_system, created_by)
		VALUES ($1, $2, $3)
		RETURNING `+cardColumns,
		content, createdBy == nil, createdBy))
	if err != nil {
		return nil, fmt.Errorf("failed to add card: %w", err)
	}
	return card, nil
}

// DeleteCustom removes a room-scoped card owned by code. System cards are
// never deleted. It reports whether a row was removed.
func (s *CardStore) DeleteCustom(ctx context.Context, id int64, code string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM questions
		WHERE id = $1 AND created_by = $2 AND NOT is_system
	`, id, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete card: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
