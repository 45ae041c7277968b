package handlers

import (
	"net/http"
	"strconv"

	"github.com/avvvet/cardroom-services/internal/roomsvc/models"
	"github.com/avvvet/cardroom-services/internal/roomsvc/service"
	"github.com/go-chi/chi"
)

type createQuestionRequest struct {
	Content   string  `json:"content"`
	CreatedBy *string `json:"created_by"`
}

func (h *Handler) cardList(w http.ResponseWriter, r *http.Request, cards []*models.Card, err error) {
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	h.ok(w, http.StatusOK, "Questions", cards)
}

func (h *Handler) SystemQuestions(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.SystemCards(r.Context())
	h.cardList(w, r, cards, err)
}

func (h *Handler) RoomQuestions(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.RoomCards(r.Context(), service.NormalizeCode(chi.URLParam(r, "code")))
	h.cardList(w, r, cards, err)
}

func (h *Handler) CustomQuestions(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.CustomCards(r.Context(), service.NormalizeCode(chi.URLParam(r, "code")))
	h.cardList(w, r, cards, err)
}

// CreateQuestion adds a card scoped to the room named in created_by.
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.CreatedBy == nil || *req.CreatedBy == "" {
		h.fail(w, http.StatusBadRequest, "Room code required for custom questions")
		return
	}

	card, err := h.cards.AddCustomCard(r.Context(), req.Content, service.NormalizeCode(*req.CreatedBy))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, "Question created", card)
}

func (h *Handler) AdminCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.cards.AddSystemCard(r.Context(), req.Content)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, "Question created", card)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid question id")
		return
	}
	roomCode := r.URL.Query().Get("room_code")
	if roomCode == "" {
		h.fail(w, http.StatusBadRequest, "room_code is required")
		return
	}

	if err := h.cards.DeleteCustomCard(r.Context(), id, service.NormalizeCode(roomCode)); err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "Question deleted", nil)
}
