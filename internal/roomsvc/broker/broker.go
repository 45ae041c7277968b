package broker

import (
	"encoding/json"

	"github.com/avvvet/cardroom-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker publishes room events to NATS for other services. Publishing is
// best effort: failures are logged and never reach players.
type Broker struct {
	Conn    *nats.Conn
	Subject string
	Source  string
}

func NewBroker(nc *nats.Conn, subject, source string) *Broker {
	return &Broker{
		Conn:    nc,
		Subject: subject,
		Source:  source,
	}
}

func (b *Broker) PublishRoomEvent(ev comm.RoomEvent) {
	if b == nil || b.Conn == nil {
		return
	}

	ev.Source = b.Source
	bytes, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("failed to marshal room event %s: %v", ev.Type, err)
		return
	}

	if err := b.Conn.Publish(b.Subject, bytes); err != nil {
		log.WithFields(log.Fields{"room": ev.RoomCode, "type": ev.Type}).
			Warnf("failed to publish room event to %s: %v", b.Subject, err)
	}
}
