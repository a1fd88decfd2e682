// Package registry tracks public rooms for lobby listing.
package registry

import (
	"sort"
	"sync"

	"github.com/starfall-gg/starfall-backend/internal/engine"
)

// listCap bounds how many rooms a list query returns.
const listCap = 50

// RoomInfo is the discovery view of one room, pushed by its session on
// joins, disconnects, and phase changes.
type RoomInfo struct {
	ID          string       `json:"id"`
	HostID      string       `json:"hostId"`
	HostName    string       `json:"hostName"`
	PlayerCount int          `json:"playerCount"`
	MaxPlayers  int          `json:"maxPlayers"`
	Phase       engine.Phase `json:"phase"`
	Public      bool         `json:"isPublic"`
	CreatedAt   int64        `json:"createdAt"`
}

// Registry is a process-wide room directory. Rooms push updates; the
// HTTP layer reads lists. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]RoomInfo
}

func New() *Registry {
	return &Registry{rooms: make(map[string]RoomInfo)}
}

// Upsert registers or refreshes a room's listing.
func (r *Registry) Upsert(info RoomInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[info.ID] = info
}

// Remove drops a room from the directory.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// List returns public rooms, most recently created first, capped.
func (r *Registry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for _, info := range r.rooms {
		if info.Public {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if len(out) > listCap {
		out = out[:listCap]
	}
	return out
}
