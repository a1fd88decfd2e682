// Package hub owns the process-wide set of live rooms. It is itself an
// actor so room creation and teardown race nothing.
package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/starfall-gg/starfall-backend/internal/engine"
	"github.com/starfall-gg/starfall-backend/internal/registry"
	"github.com/starfall-gg/starfall-backend/internal/room"
	"github.com/starfall-gg/starfall-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

// EnsureRoom returns the live room for an id, resuming it from the
// last persisted snapshot if one exists, creating it fresh otherwise.
type EnsureRoom struct {
	RoomID string
	Public bool
	Reply  chan *room.Room
}

type GetRoom struct {
	RoomID string
	Reply  chan *room.Room // nil when the room is not live
}

type RemoveRoom struct {
	RoomID string
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Store       store.Store
	Registry    *registry.Registry
	Log         *zap.Logger
	IdleTimeout time.Duration
}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		log:    opts.Log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if rm := h.rooms[msg.RoomID]; rm != nil {
					msg.Reply <- rm
					break
				}
				rm := h.spawn(msg.RoomID, msg.Public)
				h.rooms[msg.RoomID] = rm
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.RoomID]

			case RemoveRoom:
				delete(h.rooms, msg.RoomID)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}

// spawn resumes a room from its last good snapshot when one loads,
// otherwise starts it empty. A corrupt snapshot falls back to a fresh
// room rather than refusing service.
func (h *Hub) spawn(roomID string, public bool) *room.Room {
	state := h.recover(roomID)
	if state == nil {
		state = engine.NewGameState(roomID, "", public)
	}
	return room.New(h.ctx, state, room.Options{
		Store:       h.opts.Store,
		Registry:    h.opts.Registry,
		Log:         h.log,
		IdleTimeout: h.opts.IdleTimeout,
		OnIdle: func(id string) {
			h.inbox <- RemoveRoom{RoomID: id}
		},
	})
}

func (h *Hub) recover(roomID string) *engine.GameState {
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()
	data, err := h.opts.Store.Load(ctx, roomID)
	if err != nil {
		if err != store.ErrNotFound {
			h.log.Warn("snapshot load failed", zap.String("room", roomID), zap.Error(err))
		}
		return nil
	}
	state, err := engine.LoadSnapshot(data)
	if err != nil {
		h.log.Error("snapshot unreadable, starting fresh", zap.String("room", roomID), zap.Error(err))
		return nil
	}
	return state
}
