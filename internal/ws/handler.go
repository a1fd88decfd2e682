// Package ws bridges websocket connections to room actors: one reader
// loop and one writer goroutine per connection, with the actor's
// outbox channel in between.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starfall-gg/starfall-backend/internal/hub"
	"github.com/starfall-gg/starfall-backend/internal/protocol"
	"github.com/starfall-gg/starfall-backend/internal/room"
)

const (
	writeTimeout = 5 * time.Second
	// outboxSize is how far a session may lag before the room drops it.
	outboxSize = 32
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		// A connect can materialize the room without going through the
		// create endpoint; the flag only matters on that first spawn.
		public := r.URL.Query().Get("isPublic") == "true"

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{RoomID: roomID, Public: public, Reply: reply}
		rm := <-reply

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan []byte, outboxSize)

		rm.Inbox() <- room.Connect{ConnID: connID, Outbox: out}
		defer func() { rm.Inbox() <- room.Disconnect{ConnID: connID} }()

		// Writer: drains the outbox until the room closes it.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for payload := range out {
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err := conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
			// Room dropped us; close so the reader unblocks.
			conn.Close(websocket.StatusGoingAway, "dropped")
		}()

		// Reader loop. A decode failure answers with an error and keeps
		// the connection open.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				payload := protocol.Error("malformed message").Encode()
				_ = conn.Write(r.Context(), websocket.MessageText, payload)
				continue
			}

			rm.Inbox() <- room.FromClient{ConnID: connID, Msg: cm}
		}
	}
}
