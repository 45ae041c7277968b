package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port          string
	MongoURI      string // mongodb://host:27017/dbname
	EventsSubject string
	TTL           time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Port:          os.Getenv("ARCHIVE_SERVICE_PORT"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		EventsSubject: os.Getenv("ROOM_EVENTS_SUBJECT"),
		TTL:           30 * 24 * time.Hour,
	}
	if cfg.Port == "" {
		cfg.Port = "8081"
	}
	if cfg.EventsSubject == "" {
		cfg.EventsSubject = "room.events"
	}
	if cfg.MongoURI == "" {
		return cfg, fmt.Errorf("MONGODB_URI is required")
	}

	if raw := os.Getenv("ARCHIVE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid ARCHIVE_TTL %q: %w", raw, err)
		}
		if ttl <= 0 {
			return cfg, fmt.Errorf("ARCHIVE_TTL must be positive, got %s", ttl)
		}
		cfg.TTL = ttl
	}
	return cfg, nil
}
