package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/starfall-gg/starfall-backend/internal/hub"
	"github.com/starfall-gg/starfall-backend/internal/registry"
	"github.com/starfall-gg/starfall-backend/internal/room"
)

type createRoomRequest struct {
	Public bool `json:"isPublic"`
}

// CreateRoom mints a room id and spins up its session immediately so
// the creator's websocket join cannot race a cold start.
func CreateRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req) // empty body means defaults
		}

		roomID := uuid.NewString()
		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{RoomID: roomID, Public: req.Public, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			RoomID string `json:"roomId"`
		}{RoomID: roomID})
	}
}

// ListRooms serves the public room directory.
func ListRooms(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Rooms []registry.RoomInfo `json:"rooms"`
		}{Rooms: reg.List()})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
