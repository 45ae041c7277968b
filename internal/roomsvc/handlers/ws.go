package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/avvvet/cardroom-services/internal/comm"
	"github.com/avvvet/cardroom-services/internal/roomsvc/service"
	"github.com/avvvet/cardroom-services/internal/roomsvc/ws"
	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// ServeWs upgrades the request and runs the player's session until the
// socket closes. Unknown rooms are closed with 4004 right after the upgrade.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	playerID := chi.URLParam(r, "playerID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(conn)
	go client.WritePump()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	code, err = h.coord.Connect(ctx, code, playerID, client)
	cancel()
	if errors.Is(err, service.ErrRoomNotFound) {
		log.WithFields(log.Fields{"room": code, "player": playerID}).Info("websocket rejected, room not found")
		client.Close(comm.CloseRoomNotFound, "Room not found")
		return
	}
	if err != nil {
		log.WithFields(log.Fields{"room": code, "player": playerID}).Errorf("websocket connect failed: %v", err)
		client.Close(websocket.CloseInternalServerErr, "Internal error")
		return
	}

	client.ReadPump(func(raw []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return h.coord.HandleMessage(ctx, code, playerID, client, raw)
	})

	ctx, cancel = context.WithTimeout(context.Background(), opTimeout)
	h.coord.Disconnect(ctx, code, playerID, client)
	cancel()
	client.Close(websocket.CloseNormalClosure, "")
}
