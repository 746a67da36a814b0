package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/room"
	"github.com/ugaemi/safezone-server/internal/ws"
)

func newTestClient(id string) *ws.Client {
	return &ws.Client{
		ID:   id,
		Send: make(chan []byte, 1024),
	}
}

func testOptions(mode game.Mode) room.Options {
	opts := room.DefaultOptions()
	opts.Settings.Mode = mode
	opts.Zone.RelocateInterval = time.Hour
	opts.ResetDelay = 0
	opts.Seed = 3
	return opts
}

func setupRouter(mode game.Mode) (*Router, *room.Manager) {
	rm := room.NewManager(testOptions(mode))
	return NewRouter(rm), rm
}

func sendMessage(t *testing.T, router *Router, client *ws.Client, msgType string, payload any) {
	t.Helper()
	msg := ws.Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Data = data
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	router.HandleMessage(&ws.ClientMessage{Client: client, Data: raw})
}

// readMessages drains everything queued for a client.
func readMessages(client *ws.Client) []ws.Message {
	var msgs []ws.Message
	for {
		select {
		case data := <-client.Send:
			var msg ws.Message
			if err := json.Unmarshal(data, &msg); err == nil {
				msgs = append(msgs, msg)
			}
		default:
			return msgs
		}
	}
}

func findMessage(msgs []ws.Message, msgType string) *ws.Message {
	for _, m := range msgs {
		if m.Type == msgType {
			return &m
		}
	}
	return nil
}

func requireError(t *testing.T, client *ws.Client, want string) {
	t.Helper()
	msg := findMessage(readMessages(client), ws.TypeError)
	require.NotNil(t, msg, "expected error %q", want)
	var errMsg ws.ErrorMessage
	require.NoError(t, json.Unmarshal(msg.Data, &errMsg))
	require.Equal(t, want, errMsg.Message)
}

// createAndJoin puts two clients in a fresh room and returns it.
func createAndJoin(t *testing.T, router *Router, rm *room.Manager) (*room.Room, *ws.Client, *ws.Client) {
	t.Helper()
	host := newTestClient("host")
	guest := newTestClient("guest")

	sendMessage(t, router, host, ws.TypeCreateRoom, createRoomRequest{Nickname: "Host"})
	msg := findMessage(readMessages(host), ws.TypeCreateRoom)
	require.NotNil(t, msg)
	var created createRoomResponse
	require.NoError(t, json.Unmarshal(msg.Data, &created))

	sendMessage(t, router, guest, ws.TypeJoinRoom, joinRoomRequest{Code: created.Code, Nickname: "Guest"})
	r := rm.GetRoom(created.Code)
	require.NotNil(t, r)
	t.Cleanup(func() { r.StopGame(nil) })

	readMessages(host)
	readMessages(guest)
	return r, host, guest
}

// startRound readies both clients so the round begins.
func startRound(t *testing.T, router *Router, host, guest *ws.Client) {
	t.Helper()
	sendMessage(t, router, host, ws.TypePlayerReady, nil)
	sendMessage(t, router, guest, ws.TypePlayerReady, nil)
}
