package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avvvet/cardroom-services/internal/roomsvc/service"
	"github.com/avvvet/cardroom-services/internal/roomsvc/session"
	"github.com/go-chi/jwtauth"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	maxBodyBytes = 1 << 16

	// per operation budget for store calls made on behalf of a websocket
	opTimeout = 10 * time.Second
)

type Handler struct {
	coord     *session.Coordinator
	rooms     *service.RoomService
	deck      *service.DeckService
	cards     *service.CardService
	tokenAuth *jwtauth.JWTAuth
	upgrader  websocket.Upgrader
	port      string
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func NewHandler(coord *session.Coordinator, rooms *service.RoomService, deck *service.DeckService,
	cards *service.CardService, allowedOrigins []string, port string) *Handler {
	return &Handler{
		coord: coord,
		rooms: rooms,
		deck:  deck,
		cards: cards,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		port: port,
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), any listed origin, or everything when "*" is listed.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) ok(w http.ResponseWriter, code int, message string, data interface{}) {
	h.CreateResponse(w, Response{Message: message, Code: code, Data: data})
}

func (h *Handler) fail(w http.ResponseWriter, code int, message string) {
	h.CreateResponse(w, Response{Message: http.StatusText(code), Code: code, Error: message})
}

// serviceError maps a service error onto an HTTP status. Unknown errors are
// logged and reported as a generic 500.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		h.fail(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, service.ErrQuestionNotFound):
		h.fail(w, http.StatusNotFound, "Question not found or cannot be deleted")
	case errors.Is(err, service.ErrGameEnded):
		h.fail(w, http.StatusBadRequest, "Game has ended")
	case errors.Is(err, service.ErrInvalidInput):
		h.fail(w, http.StatusBadRequest, err.Error())
	default:
		log.WithField("path", r.URL.Path).Errorf("request failed: %v", err)
		h.fail(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, http.StatusOK, "room service is running at port "+h.port, map[string]interface{}{
		"status":       "healthy",
		"active_rooms": len(h.coord.Registry().Rooms()),
	})
}
