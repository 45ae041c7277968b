package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client wraps one websocket connection. Outbound messages are queued on a
// buffered channel and written by WritePump; a client whose queue is full is
// closed instead of blocking the sender.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan any

	mu          sync.Mutex
	closed      bool
	closeCode   int
	closeReason string
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, sendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues msg without blocking. It returns false if the client is
// closed or too slow to keep up.
func (c *Client) Send(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		log.WithField("conn", c.id).Warn("send buffer full, closing slow client")
		c.closeLocked(websocket.ClosePolicyViolation, "Too slow")
		return false
	}
}

// Close flushes queued messages and then sends a close frame with code.
func (c *Client) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(code, reason)
}

func (c *Client) closeLocked(code int, reason string) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.send)
}

// WritePump drains the send queue to the socket and keeps it alive with
// pings. It owns all writes to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	logCtx := log.WithField("conn", c.id)

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.mu.Lock()
				code, reason := c.closeCode, c.closeReason
				c.mu.Unlock()
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				logCtx.WithError(err).Debug("failed to write message to websocket")
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Debug("failed to send ping")
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}
		}
	}
}

// ReadPump feeds every text frame to handle until the peer goes away or
// handle returns an error.
func (c *Client) ReadPump(handle func(raw []byte) error) {
	logCtx := log.WithField("conn", c.id)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logCtx.WithError(err).Warn("websocket read error")
			} else {
				logCtx.Debug("websocket closed")
			}
			return
		}

		if messageType != websocket.TextMessage {
			logCtx.Debugf("ignoring non-text frame of type %d", messageType)
			continue
		}

		if err := handle(raw); err != nil {
			logCtx.WithError(err).Error("message handling failed, closing connection")
			c.Close(websocket.CloseInternalServerErr, "Internal error")
			return
		}
	}
}
