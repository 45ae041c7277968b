package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/cardroom-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const QueueGroup = "archive"

type Archiver interface {
	Save(ctx context.Context, ev comm.RoomEvent) error
}

// Broker consumes room events and hands them to the archive.
type Broker struct {
	Conn    *nats.Conn
	Archive Archiver
	timeout time.Duration
}

func NewBroker(nc *nats.Conn, archive Archiver) *Broker {
	return &Broker{
		Conn:    nc,
		Archive: archive,
		timeout: 10 * time.Second,
	}
}

// QueueSubscribe shares the subject among every archive instance so each
// event is stored once.
func (b *Broker) QueueSubscribe(subject string) (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(subject, QueueGroup, b.handleMessage)
}

func (b *Broker) handleMessage(msg *nats.Msg) {
	var ev comm.RoomEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		log.Errorf("invalid room event on %s: %v", msg.Subject, err)
		return
	}
	if ev.Type == "" || ev.RoomCode == "" {
		log.Warnf("dropping room event without type or room code: %s", msg.Data)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := b.Archive.Save(ctx, ev); err != nil {
		log.WithFields(log.Fields{"room": ev.RoomCode, "type": ev.Type}).Errorf("failed to archive room event: %v", err)
		return
	}
	log.WithFields(log.Fields{"room": ev.RoomCode, "type": ev.Type}).Debug("room event archived")
}
