package db

import (
	"context"
	"fmt"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id         BIGSERIAL PRIMARY KEY,
	content    TEXT NOT NULL,
	is_system  BOOLEAN NOT NULL DEFAULT TRUE,
	created_by VARCHAR(50),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_questions_created_by ON questions (created_by);

CREATE TABLE IF NOT EXISTS rooms (
	code            VARCHAR(6) PRIMARY KEY,
	host_id         VARCHAR(50) NOT NULL,
	status          VARCHAR(20) NOT NULL DEFAULT 'waiting',
	current_card_id BIGINT REFERENCES questions (id) ON DELETE SET NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS players (
	id        BIGSERIAL PRIMARY KEY,
	room_code VARCHAR(6) NOT NULL REFERENCES rooms (code) ON DELETE CASCADE,
	player_id VARCHAR(50) NOT NULL,
	nickname  VARCHAR(50) NOT NULL,
	is_host   BOOLEAN NOT NULL DEFAULT FALSE,
	joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT unique_room_player UNIQUE (room_code, player_id)
);

CREATE TABLE IF NOT EXISTS game_history (
	id          BIGSERIAL PRIMARY KEY,
	room_code   VARCHAR(6) NOT NULL REFERENCES rooms (code) ON DELETE CASCADE,
	question_id BIGINT NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
	drawn_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT unique_room_question UNIQUE (room_code, question_id)
);
`

// Migrate creates the room service tables when they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedQuestions inserts the default system deck unless system cards exist.
func SeedQuestions(ctx context.Context, pool *pgxpool.Pool) error {
	var existing int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE is_system`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count system questions: %w", err)
	}
	if existing > 0 {
		log.Infof("system questions already exist (%d found), skipping seed", existing)
		return nil
	}

	batch := &pgx.Batch{}
	for _, content := range models.DefaultDeck {
		batch.Queue(`INSERT INTO questions (content, is_system) VALUES ($1, TRUE)`, content)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to seed questions: %w", err)
	}

	log.Infof("seeded %d system questions", len(models.DefaultDeck))
	return nil
}
