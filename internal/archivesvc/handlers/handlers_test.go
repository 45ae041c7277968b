package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avvvet/cardroom-services/internal/archivesvc/archive"
	"github.com/avvvet/cardroom-services/internal/comm"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	code  string
	limit int64
	err   error
}

func (f *fakeLister) ListByRoom(ctx context.Context, roomCode string, limit int64) ([]archive.Record, error) {
	f.code, f.limit = roomCode, limit
	if f.err != nil {
		return nil, f.err
	}
	ev := comm.RoomEvent{Type: comm.EvtCardDrawn, RoomCode: roomCode, At: time.Now().UTC()}
	return []archive.Record{archive.NewRecord(ev, time.Hour, time.Now())}, nil
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.SetRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoomEvents(t *testing.T) {
	lister := &fakeLister{}
	rec := serve(NewHandler(lister, "8081"), "/v1/rooms/abc123/events?limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ABC123", lister.code)
	assert.EqualValues(t, 5, lister.limit)

	var body struct {
		Data []archive.Record `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, comm.EvtCardDrawn, body.Data[0].Type)
}

func TestRoomEventsErrors(t *testing.T) {
	rec := serve(NewHandler(&fakeLister{}, "8081"), "/v1/rooms/ABC123/events?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(NewHandler(&fakeLister{err: errors.New("boom")}, "8081"), "/v1/rooms/ABC123/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
