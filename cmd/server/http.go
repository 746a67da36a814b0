package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ugaemi/safezone-server/internal/room"
	"github.com/ugaemi/safezone-server/internal/store"
	"github.com/ugaemi/safezone-server/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func newHTTPHandler(hub *ws.Hub, rm *room.Manager, results store.ResultStore) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", handleHealth(hub, rm)).Methods(http.MethodGet)
	router.HandleFunc("/ws", handleWebSocket(hub)).Methods(http.MethodGet)
	router.HandleFunc("/rooms", handleRooms(rm)).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{code}", handleRoom(rm)).Methods(http.MethodGet)
	router.HandleFunc("/rounds", handleRounds(results)).Methods(http.MethodGet)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError)),
	)
	return recovery(handlers.CustomLoggingHandler(io.Discard, router, logRequest))
}

func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Debug("http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Rooms   int    `json:"rooms"`
}

func handleHealth(hub *ws.Hub, rm *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Clients: hub.ClientCount(),
			Rooms:   rm.RoomCount(),
		})
	}
}

func handleWebSocket(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		client := ws.NewClient(hub, conn)
		if !hub.Add(client) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

func handleRooms(rm *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, rm.List())
	}
}

func handleRoom(rm *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := room.NormalizeCode(mux.Vars(r)["code"])
		for _, s := range rm.List() {
			if s.Code == code {
				writeJSON(w, http.StatusOK, s)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
	}
}

func handleRounds(results store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			limit = n
		}

		records, err := results.RecentRounds(r.Context(), limit)
		if err != nil {
			slog.Error("failed to load rounds", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load rounds"})
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}
