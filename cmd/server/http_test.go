package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/handler"
	"github.com/ugaemi/safezone-server/internal/room"
	"github.com/ugaemi/safezone-server/internal/store"
	"github.com/ugaemi/safezone-server/internal/ws"
)

type testServer struct {
	srv     *httptest.Server
	hub     *ws.Hub
	stopHub context.CancelFunc
	rm      *room.Manager
	results *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	hub := ws.NewHub()
	results := store.NewMemoryStore()
	opts := room.DefaultOptions()
	opts.Results = results
	opts.ResetDelay = 0
	rm := room.NewManager(opts)
	router := handler.NewRouter(rm)
	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect
	go hub.Run(ctx)

	srv := httptest.NewServer(newHTTPHandler(hub, rm, results))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		rm.Shutdown()
	})
	return &testServer{srv: srv, hub: hub, stopHub: cancel, rm: rm, results: results}
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	ts.rm.CreateRoom()

	var body healthResponse
	status := getJSON(t, ts.srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Rooms)
	assert.Equal(t, 0, body.Clients)
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.srv.URL+"/health", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRooms(t *testing.T) {
	ts := newTestServer(t)

	var empty []room.Summary
	getJSON(t, ts.srv.URL+"/rooms", &empty)
	assert.Empty(t, empty)

	r := ts.rm.CreateRoom()
	r.AddPlayer(game.NewPlayer("Alice"), &ws.Client{ID: "c1", Send: make(chan []byte, 16)})

	var list []room.Summary
	getJSON(t, ts.srv.URL+"/rooms", &list)
	require.Len(t, list, 1)
	assert.Equal(t, r.Code, list[0].Code)
	assert.Equal(t, "waiting", list[0].State)
	assert.Equal(t, 1, list[0].Players)

	var one room.Summary
	status := getJSON(t, ts.srv.URL+"/rooms/"+strings.ToLower(r.Code), &one)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, r.Code, one.Code)

	var notFound map[string]string
	status = getJSON(t, ts.srv.URL+"/rooms/ZZZZ", &notFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "room not found", notFound["error"])
}

func TestRounds(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, ts.results.SaveRound(ctx, "ABCD", &game.RoundResult{
			ID:       id,
			Players:  2,
			Duration: 30 * time.Second,
			EndedAt:  time.Now(),
		}))
	}

	var records []store.RoundRecord
	status := getJSON(t, ts.srv.URL+"/rounds?limit=2", &records)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, records, 2)
	assert.Equal(t, "r3", records[0].Result.ID)
	assert.Equal(t, "ABCD", records[0].RoomCode)

	var errBody map[string]string
	status = getJSON(t, ts.srv.URL+"/rounds?limit=abc", &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWebSocket_CreateRoom(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ws.Message{
		Type: ws.TypeCreateRoom,
		Data: json.RawMessage(`{"nickname":"Alice"}`),
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeCreateRoom, msg.Type)

	var payload struct {
		Code     string `json:"code"`
		PlayerID string `json:"player_id"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Len(t, payload.Code, 4)
	assert.NotEmpty(t, payload.PlayerID)
	assert.NotNil(t, ts.rm.GetRoom(payload.Code))
}

func TestWebSocket_UpgradeAfterHubStopped(t *testing.T) {
	ts := newTestServer(t)
	ts.stopHub()
	select {
	case <-ts.hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, 0, ts.hub.ClientCount())

	var health map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, ts.srv.URL+"/health", &health))
}
