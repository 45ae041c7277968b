package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/avvvet/cardroom-services/internal/archivesvc/archive"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

const defaultLimit = 100

type EventLister interface {
	ListByRoom(ctx context.Context, roomCode string, limit int64) ([]archive.Record, error)
}

type Handler struct {
	events EventLister
	port   string
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func NewHandler(events EventLister, port string) *Handler {
	return &Handler{events: events, port: port}
}

func (h *Handler) SetRoutes(r chi.Router) {
	r.Get("/health", h.HealthHandler)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rooms/{code}/events", h.RoomEvents)
	})
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "archive service is running at port " + h.port,
		Code:    http.StatusOK,
	})
}

// RoomEvents lists archived events of a room, newest first. ?limit= caps the
// result (default 100).
func (h *Handler) RoomEvents(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			h.CreateResponse(w, Response{Message: "Bad Request", Code: http.StatusBadRequest, Error: "invalid limit"})
			return
		}
		limit = n
	}

	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	records, err := h.events.ListByRoom(r.Context(), code, limit)
	if err != nil {
		log.WithField("room", code).Errorf("failed to list archived events: %v", err)
		h.CreateResponse(w, Response{Message: "Internal Server Error", Code: http.StatusInternalServerError, Error: "internal server error"})
		return
	}

	h.CreateResponse(w, Response{Message: "Room events", Code: http.StatusOK, Data: records})
}
