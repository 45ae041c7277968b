package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/cardroom-services/internal/comm"
	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/avvvet/cardroom-services/internal/roomsvc/service"
	log "github.com/sirupsen/logrus"
)

// Publisher receives a copy of every room broadcast. Implementations must
// not block and must swallow their own failures.
type Publisher interface {
	PublishRoomEvent(ev comm.RoomEvent)
}

// Coordinator runs the room protocol: it authorizes control messages,
// mutates room state under the room's lock and fans results out through
// the registry.
type Coordinator struct {
	rooms    *service.RoomService
	deck     *service.DeckService
	registry *Registry
	locks    *roomLocks
	events   Publisher
	now      func() time.Time
}

func NewCoordinator(rooms *service.RoomService, deck *service.DeckService, registry *Registry, events Publisher) *Coordinator {
	return &Coordinator{
		rooms:    rooms,
		deck:     deck,
		registry: registry,
		locks:    newRoomLocks(),
		events:   events,
		now:      time.Now,
	}
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) publish(ev comm.RoomEvent) {
	if c.events == nil {
		return
	}
	ev.At = c.now().UTC()
	c.events.PublishRoomEvent(ev)
}

func (c *Coordinator) sendError(conn Conn, message string) {
	conn.Send(comm.NewError(message))
}

func snapshot(room *models.Room) comm.GameState {
	players := room.Players
	if players == nil {
		players = []*models.Player{}
	}
	return comm.GameState{
		Type:        comm.EvtGameState,
		Status:      room.Status,
		CurrentCard: room.CurrentCard,
		Players:     players,
	}
}

// Connect registers conn for playerID in the room, pushes the full state to
// it and tells the rest of the room. It returns the normalized room code, or
// service.ErrRoomNotFound.
func (c *Coordinator) Connect(ctx context.Context, code, playerID string, conn Conn) (string, error) {
	code = service.NormalizeCode(code)

	unlock := c.locks.Lock(code)
	defer unlock()

	room, err := c.rooms.GetRoom(ctx, code)
	if err != nil {
		return code, err
	}

	c.registry.Register(code, playerID, conn)
	conn.Send(snapshot(room))

	c.registry.Broadcast(code, comm.PlayerConnected{
		Type:        comm.EvtPlayerConnected,
		PlayerID:    playerID,
		PlayerCount: len(room.Players),
	}, playerID)

	if err := c.rooms.Touch(ctx, code); err != nil {
		log.WithField("room", code).Warnf("failed to touch room: %v", err)
	}

	log.WithFields(log.Fields{"room": code, "player": playerID, "conn": conn.ID()}).Info("connection registered")
	return code, nil
}

// Disconnect deregisters conn. The player stays on the roster; the room is
// told unless it no longer exists.
func (c *Coordinator) Disconnect(ctx context.Context, code, playerID string, conn Conn) {
	unlock := c.locks.Lock(code)
	defer unlock()

	c.registry.Deregister(code, conn)

	logCtx := log.WithFields(log.Fields{"room": code, "player": playerID, "conn": conn.ID()})
	if _, err := c.rooms.GetRoom(ctx, code); err != nil {
		if !errors.Is(err, service.ErrRoomNotFound) {
			logCtx.Warnf("failed to read room on disconnect: %v", err)
		}
		logCtx.Info("connection deregistered")
		return
	}

	c.registry.Broadcast(code, comm.PlayerDisconnected{
		Type:     comm.EvtPlayerDisconnected,
		PlayerID: playerID,
	}, "")
	logCtx.Info("connection deregistered")
}

// HandleMessage processes one inbound control message. Authorization and
// precondition failures are reported privately to conn and return nil; a
// non-nil error means the connection should be closed.
func (c *Coordinator) HandleMessage(ctx context.Context, code, playerID string, conn Conn, raw []byte) error {
	var msg comm.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		c.sendError(conn, "Invalid message format")
		return nil
	}

	unlock := c.locks.Lock(code)
	defer unlock()

	room, err := c.rooms.GetRoom(ctx, code)
	if errors.Is(err, service.ErrRoomNotFound) {
		c.sendError(conn, "Room not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read room %s: %w", code, err)
	}

	logCtx := log.WithFields(log.Fields{"room": code, "player": playerID, "type": msg.Type})
	logCtx.Debug("control message received")

	switch msg.Type {
	case comm.MsgStartGame:
		return c.changeStatus(ctx, conn, room, playerID, "start", c.rooms.StartGame, comm.EvtGameStarted, models.StatusPlaying)
	case comm.MsgEndGame:
		return c.changeStatus(ctx, conn, room, playerID, "end", c.rooms.EndGame, comm.EvtGameEnded, models.StatusEnded)
	case comm.MsgRestartGame:
		return c.changeStatus(ctx, conn, room, playerID, "restart", c.rooms.RestartGame, comm.EvtGameRestarted, models.StatusWaiting)
	case comm.MsgDrawCard, comm.MsgSwitchCard:
		return c.drawCard(ctx, conn, room, playerID, msg.Type == comm.MsgSwitchCard)
	default:
		c.sendError(conn, "Unknown message type: "+msg.Type)
		return nil
	}
}

func (c *Coordinator) changeStatus(ctx context.Context, conn Conn, room *models.Room, playerID, verb string,
	apply func(context.Context, string) error, event string, status models.Status) error {
	if !room.IsHost(playerID) {
		c.sendError(conn, fmt.Sprintf("Only the host can %s the game", verb))
		return nil
	}

	if err := apply(ctx, room.Code); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.sendError(conn, "Room not found")
			return nil
		}
		return fmt.Errorf("%s game in room %s: %w", verb, room.Code, err)
	}

	c.registry.Broadcast(room.Code, comm.StatusChanged{Type: event, Status: status}, "")
	c.publish(comm.RoomEvent{Type: event, RoomCode: room.Code, PlayerID: playerID, Status: status})

	log.WithFields(log.Fields{"room": room.Code, "player": playerID, "status": status}).Info("room status changed")
	return nil
}

func (c *Coordinator) drawCard(ctx context.Context, conn Conn, room *models.Room, playerID string, switching bool) error {
	if room.Status != models.StatusPlaying {
		c.sendError(conn, "Game is not in progress")
		return nil
	}

	draw := c.deck.Draw
	if switching {
		draw = c.deck.Switch
	}

	card, err := draw(ctx, room)
	switch {
	case errors.Is(err, service.ErrNoCardsAvailable):
		c.sendError(conn, "No cards available")
		return nil
	case errors.Is(err, service.ErrRoomNotFound):
		c.sendError(conn, "Room not found")
		return nil
	case err != nil:
		return fmt.Errorf("draw card in room %s: %w", room.Code, err)
	}

	var msg any
	event := comm.EvtCardDrawn
	if switching {
		event = comm.EvtCardSwitched
		msg = comm.CardSwitched{Type: event, Card: card, SwitchedBy: playerID}
	} else {
		msg = comm.CardDrawn{Type: event, Card: card, DrawnBy: playerID}
	}

	c.registry.Broadcast(room.Code, msg, "")
	c.publish(comm.RoomEvent{Type: event, RoomCode: room.Code, PlayerID: playerID, CardID: card.ID})

	log.WithFields(log.Fields{"room": room.Code, "player": playerID, "card": card.ID}).Info(event)
	return nil
}

// Join adds a player to the roster and tells the room when the entry is new.
func (c *Coordinator) Join(ctx context.Context, code, playerID, nickname string) (*models.Room, error) {
	code = service.NormalizeCode(code)

	unlock := c.locks.Lock(code)
	defer unlock()

	player, created, err := c.rooms.JoinRoom(ctx, code, playerID, nickname)
	if err != nil {
		return nil, err
	}

	room, err := c.rooms.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	if created {
		c.registry.Broadcast(code, comm.PlayerJoined{
			Type:        comm.EvtPlayerJoined,
			Player:      player,
			PlayerCount: len(room.Players),
		}, playerID)
		c.publish(comm.RoomEvent{Type: comm.EvtPlayerJoined, RoomCode: code, PlayerID: playerID})
	}
	return room, nil
}

// Leave removes a player from the roster. When the room is destroyed its
// remaining connections are closed.
func (c *Coordinator) Leave(ctx context.Context, code, playerID string) (service.LeaveResult, error) {
	code = service.NormalizeCode(code)

	unlock := c.locks.Lock(code)
	defer unlock()

	res, err := c.rooms.LeaveRoom(ctx, code, playerID)
	if err != nil {
		return res, err
	}

	switch {
	case res.RoomDeleted:
		c.closeRoom(code, playerID)
	case res.Left:
		c.registry.Broadcast(code, comm.PlayerLeft{
			Type:        comm.EvtPlayerLeft,
			PlayerID:    playerID,
			PlayerCount: res.Remaining,
			HostID:      res.HostID,
		}, "")
		c.publish(comm.RoomEvent{Type: comm.EvtPlayerLeft, RoomCode: code, PlayerID: playerID})
	}
	return res, nil
}

// closeRoom must be called with the room's lock held.
func (c *Coordinator) closeRoom(code, playerID string) {
	c.registry.Broadcast(code, comm.RoomClosed{Type: comm.EvtRoomClosed, RoomCode: code}, "")
	c.registry.CloseRoom(code, comm.CloseRoomNotFound, "Room closed")
	c.publish(comm.RoomEvent{Type: comm.EvtRoomClosed, RoomCode: code, PlayerID: playerID})
}

// ReapIdle destroys rooms without live connections whose last activity is
// older than ttl. It returns the number of rooms removed.
func (c *Coordinator) ReapIdle(ctx context.Context, ttl time.Duration) (int, error) {
	codes, err := c.rooms.IdleRooms(ctx, c.now().Add(-ttl))
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, code := range codes {
		unlock := c.locks.Lock(code)
		if c.registry.Count(code) > 0 {
			unlock()
			continue
		}
		err := c.rooms.DeleteRoom(ctx, code)
		if err == nil {
			c.closeRoom(code, "")
			reaped++
			log.WithField("room", code).Info("idle room reaped")
		} else if !errors.Is(err, service.ErrRoomNotFound) {
			log.WithField("room", code).Errorf("failed to reap room: %v", err)
		}
		unlock()
	}
	return reaped, nil
}

// RunReaper calls ReapIdle every ttl/2 until ctx is done.
func (c *Coordinator) RunReaper(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.ReapIdle(ctx, ttl); err != nil {
				log.Errorf("idle room reaper: %v", err)
			}
		}
	}
}
