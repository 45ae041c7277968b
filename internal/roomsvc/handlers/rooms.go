package handlers

import (
	"net/http"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/go-chi/chi"
)

type createRoomRequest struct {
	HostID       string `json:"host_id"`
	HostNickname string `json:"host_nickname"`
}

type joinRoomRequest struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
}

type RoomSummary struct {
	RoomCode    string        `json:"room_code"`
	Status      models.Status `json:"status"`
	PlayerCount int           `json:"player_count"`
}

type LeaveResponse struct {
	RoomDeleted bool   `json:"room_deleted"`
	HostID      string `json:"host_id,omitempty"`
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !h.decode(w, r, &req) {
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), req.HostID, req.HostNickname)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, "Room created", room)
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoom(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "Room found", room)
}

func (h *Handler) RoomExists(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoom(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "Room found", RoomSummary{
		RoomCode:    room.Code,
		Status:      room.Status,
		PlayerCount: len(room.Players),
	})
}

func (h *Handler) RoomHistory(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoom(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	history, err := h.deck.History(r.Context(), room.Code)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if history == nil {
		history = []*models.DrawRecord{}
	}
	h.ok(w, http.StatusOK, "Draw history", history)
}

func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if !h.decode(w, r, &req) {
		return
	}

	room, err := h.coord.Join(r.Context(), chi.URLParam(r, "code"), req.PlayerID, req.Nickname)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "Joined room", room)
}

func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	res, err := h.coord.Leave(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "playerID"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "Left room", LeaveResponse{RoomDeleted: res.RoomDeleted, HostID: res.HostID})
}
