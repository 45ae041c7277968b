package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ROOM_SERVICE_PORT", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("RATE_LIMIT", "")
	t.Setenv("ROOM_IDLE_TIMEOUT", "")
	t.Setenv("ROOM_EVENTS_SUBJECT", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DBUrl)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, time.Duration(0), cfg.IdleTimeout)
	assert.Equal(t, "room.events", cfg.EventsSubject)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("ROOM_SERVICE_PORT", "9000")
	t.Setenv("MIGRATE_POSTGRES", "true")
	t.Setenv("RATE_LIMIT", "30")
	t.Setenv("ROOM_IDLE_TIMEOUT", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	t.Setenv("RATE_LIMIT", "lots")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT", "")
	t.Setenv("ROOM_IDLE_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("ROOM_IDLE_TIMEOUT", "")
	t.Setenv("JWT_SECRET_KEY", "")
	_, err = Load()
	assert.Error(t, err)
}
