// Package room runs one game room as a single-threaded actor: a
// goroutine owning the GameState, fed by a message inbox. All mutation
// happens inside the loop, so the engine never needs locks.
package room

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starfall-gg/starfall-backend/internal/engine"
	"github.com/starfall-gg/starfall-backend/internal/protocol"
	"github.com/starfall-gg/starfall-backend/internal/registry"
	"github.com/starfall-gg/starfall-backend/internal/store"
)

// defaultIdleTimeout keeps an empty room alive long enough for every
// player to drop and come back.
const defaultIdleTimeout = 6 * time.Hour

const spectatorPrefix = "spectator_"

type Options struct {
	Store       store.Store
	Registry    *registry.Registry
	Log         *zap.Logger
	IdleTimeout time.Duration
	// OnIdle runs after the idle timer fires with zero connections,
	// once the room has unregistered and persisted its final snapshot.
	OnIdle func(roomID string)
	Rand   *rand.Rand
}

type Room struct {
	id    string
	inbox chan Msg
	state *engine.GameState

	conns    map[string]chan []byte // connID -> session outbox
	identity map[string]string      // connID -> playerID

	rng  *rand.Rand
	idle *time.Timer
	opts Options
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	announcedTurn  string
	announcedRound int
	announcedEnd   bool
	endReason      string
}

func New(parent context.Context, state *engine.GameState, opts Options) *Room {
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
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	idle := time.NewTimer(opts.IdleTimeout)
	if !idle.Stop() {
		<-idle.C
	}

	r := &Room{
		id:       state.RoomID,
		inbox:    make(chan Msg, 64),
		state:    state,
		conns:    make(map[string]chan []byte),
		identity: make(map[string]string),
		rng:      opts.Rand,
		idle:     idle,
		opts:     opts,
		log:      opts.Log.With(zap.String("room", state.RoomID)),
		ctx:      ctx,
		cancel:   cancel,
	}
	r.pushDiscovery()
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case <-r.idle.C:
			if len(r.conns) > 0 {
				break
			}
			r.log.Info("idle timeout, tearing down")
			r.opts.Registry.Remove(r.id)
			r.persist()
			if f := r.opts.OnIdle; f != nil {
				go f(r.id)
			}
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Connect:
				r.conns[msg.ConnID] = msg.Outbox
				r.disarmIdle()

			case Disconnect:
				r.dropConn(msg.ConnID)

			case FromClient:
				r.handleClient(msg.ConnID, msg.Msg)

			case GetView:
				msg.Reply <- View{
					NumConns: len(r.conns),
					State:    r.state.Serialize(true),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.conns {
		close(ch)
		delete(r.conns, id)
	}
	r.idle.Stop()
	r.cancel()
}

func (r *Room) disarmIdle() {
	if !r.idle.Stop() {
		select {
		case <-r.idle.C:
		default:
		}
	}
}

// detach unregisters a session without rebroadcasting. The player
// stays in the game marked disconnected; the last session out arms the
// idle timer.
func (r *Room) detach(connID string) {
	ch, ok := r.conns[connID]
	if !ok {
		return
	}
	close(ch)
	delete(r.conns, connID)

	if pid := r.identity[connID]; pid != "" && !strings.HasPrefix(pid, spectatorPrefix) {
		if p := r.state.Players[pid]; p != nil {
			p.Connected = false
		}
	}
	delete(r.identity, connID)

	if len(r.conns) == 0 {
		r.idle.Reset(r.opts.IdleTimeout)
	}
}

func (r *Room) dropConn(connID string) {
	r.detach(connID)
	r.afterMutation(nil)
}

func (r *Room) handleClient(connID string, msg protocol.ClientMessage) {
	switch msg.Type {
	case protocol.KindJoinRoom:
		r.handleJoin(connID, msg)
	case protocol.KindLeaveRoom:
		r.handleLeave(connID, msg)
	case protocol.KindSelectClass:
		r.handleSelectClass(connID, msg)
	case protocol.KindReady:
		r.handleReady(connID, msg)
	case protocol.KindStartGame:
		r.handleStartGame(connID, msg)
	case protocol.KindPerformAction:
		r.handleAction(connID, msg)
	case protocol.KindForceEndGame:
		r.handleForceEnd(connID, msg)
	case protocol.KindReturnToRoom:
		r.handleReturnToRoom(connID, msg)
	case protocol.KindUpdateSettings:
		r.handleUpdateSettings(connID, msg)
	default:
		r.sendError(connID, "unknown message type")
	}
}

// handleJoin covers three cases: a fresh join during waiting, a
// reconnect in any phase, and a late joiner who becomes a spectator.
func (r *Room) handleJoin(connID string, msg protocol.ClientMessage) {
	id := msg.PlayerID
	if id == "" {
		id = uuid.NewString()
	}

	switch {
	case r.state.Players[id] != nil:
		p := r.state.Players[id]
		p.Connected = true
		if msg.PlayerName != "" {
			p.Name = msg.PlayerName
		}

	case r.state.Phase == engine.PhaseWaiting:
		if len(r.state.Players) >= r.state.Settings.MaxPlayers {
			r.sendError(connID, engine.ErrRoomFull.Error())
			return
		}
		name := msg.PlayerName
		if name == "" {
			name = "player"
		}
		r.state.AddPlayer(id, name, msg.Avatar)
		if r.state.HostID == "" {
			r.state.HostID = id
		}

	default:
		// Game already running; late joiners watch.
		id = spectatorPrefix + connID
	}

	r.identity[connID] = id
	r.sendTo(connID, protocol.RoomState(r.state.Serialize(true)))
	r.afterMutation(nil)
}

func (r *Room) handleLeave(connID string, msg protocol.ClientMessage) {
	pid := msg.PlayerID
	if pid != "" && !strings.HasPrefix(pid, spectatorPrefix) && r.state.Players[pid] != nil {
		if r.state.Phase == engine.PhaseWaiting {
			r.state.RemovePlayer(pid)
		} else {
			r.state.Players[pid].Connected = false
		}
	}
	r.dropConn(connID)
}

func (r *Room) handleSelectClass(connID string, msg protocol.ClientMessage) {
	if err := r.state.SelectClass(msg.PlayerID, msg.SelectedClass, r.rng); err != nil {
		r.sendError(connID, err.Error())
		return
	}
	r.afterMutation(nil)
}

func (r *Room) handleReady(connID string, msg protocol.ClientMessage) {
	p := r.state.Players[msg.PlayerID]
	if p == nil {
		r.sendError(connID, engine.ErrUnknownPlayer.Error())
		return
	}
	p.Ready = !p.Ready
	r.afterMutation(nil)
}

func (r *Room) handleStartGame(connID string, msg protocol.ClientMessage) {
	switch {
	case msg.PlayerID != r.state.HostID:
		r.sendError(connID, engine.ErrNotHost.Error())
	case r.state.Phase != engine.PhaseWaiting:
		r.sendError(connID, engine.ErrWrongPhase.Error())
	case len(r.state.Players) < r.state.Settings.MinPlayers:
		r.sendError(connID, engine.ErrTooFewPlayers.Error())
	default:
		r.state.StartClassSelection(r.rng)
		r.afterMutation(nil)
	}
}

func (r *Room) handleAction(connID string, msg protocol.ClientMessage) {
	if msg.Action == nil {
		r.sendError(connID, "action required")
		return
	}
	act := *msg.Action
	res, err := engine.Resolve(r.state, msg.PlayerID, act, r.rng)
	if err != nil {
		r.sendError(connID, err.Error())
		return
	}

	logs := []engine.ActionLog{r.record(msg.PlayerID, act.Kind, res)}

	if r.state.Phase == engine.PhasePlaying {
		if act.Kind == engine.ActionAlienWarp {
			// The last obligation in lets the suspended round close.
			if len(r.state.PendingTeleports) == 0 && r.state.CurrentPlayerID == "" {
				logs = append(logs, r.state.CloseRound(r.rng)...)
			}
		} else if !act.Kind.IsFree() && r.state.CurrentPlayerID == msg.PlayerID {
			p := r.state.Players[msg.PlayerID]
			if p == nil || !p.Alive || p.Steps == 0 {
				more, _ := r.state.AdvanceTurn(r.rng)
				logs = append(logs, more...)
			}
		}
	}

	r.afterMutation(logs)
}

func (r *Room) handleForceEnd(connID string, msg protocol.ClientMessage) {
	switch {
	case msg.PlayerID != r.state.HostID:
		r.sendError(connID, engine.ErrNotHost.Error())
	case r.state.Phase != engine.PhasePlaying:
		r.sendError(connID, engine.ErrWrongPhase.Error())
	default:
		r.state.ForceEnd()
		r.endReason = "force_ended"
		r.afterMutation(nil)
	}
}

func (r *Room) handleReturnToRoom(connID string, msg protocol.ClientMessage) {
	switch {
	case msg.PlayerID != r.state.HostID:
		r.sendError(connID, engine.ErrNotHost.Error())
	case r.state.Phase != engine.PhaseEnded:
		r.sendError(connID, engine.ErrWrongPhase.Error())
	default:
		r.state.ResetForRematch()
		r.announcedTurn = ""
		r.announcedRound = 0
		r.announcedEnd = false
		r.endReason = ""
		r.afterMutation(nil)
	}
}

func (r *Room) handleUpdateSettings(connID string, msg protocol.ClientMessage) {
	if msg.PlayerID != r.state.HostID {
		r.sendError(connID, engine.ErrNotHost.Error())
		return
	}
	if r.state.Phase != engine.PhaseWaiting {
		r.sendError(connID, engine.ErrWrongPhase.Error())
		return
	}
	if msg.Settings == nil {
		r.sendError(connID, "settings required")
		return
	}

	s := &r.state.Settings
	patch := msg.Settings
	if patch.MinPlayers != nil && *patch.MinPlayers >= 2 {
		s.MinPlayers = *patch.MinPlayers
	}
	if patch.MaxPlayers != nil && *patch.MaxPlayers >= s.MinPlayers && *patch.MaxPlayers <= 9 {
		s.MaxPlayers = *patch.MaxPlayers
	}
	if patch.Public != nil {
		s.Public = *patch.Public
	}
	if patch.ClassOptionsCount != nil && *patch.ClassOptionsCount >= 1 {
		s.ClassOptionsCount = *patch.ClassOptionsCount
	}
	if patch.InitialHealth != nil && *patch.InitialHealth >= 1 {
		s.InitialHealth = *patch.InitialHealth
		for _, p := range r.state.Players {
			p.Health = s.InitialHealth
			p.MaxHealth = s.InitialHealth
		}
	}
	r.afterMutation(nil)
}

// record appends one action log entry and returns it for incremental
// broadcast.
func (r *Room) record(playerID string, kind engine.ActionKind, res engine.ActionResult) engine.ActionLog {
	name := ""
	if p := r.state.Players[playerID]; p != nil {
		name = p.Name
	}
	l := engine.ActionLog{
		ID:         uuid.NewString(),
		Round:      r.state.Round,
		PlayerID:   playerID,
		PlayerName: name,
		Kind:       kind,
		Result:     res,
		Timestamp:  time.Now().UnixMilli(),
	}
	r.state.AppendLog(l)
	return l
}

// afterMutation is the tail of every state-changing handler: persist,
// refresh discovery, broadcast the trimmed state, then any incremental
// logs, then whichever phase announcement newly applies.
func (r *Room) afterMutation(logs []engine.ActionLog) {
	r.persist()
	r.pushDiscovery()
	r.broadcast(protocol.RoomState(r.state.Serialize(false)))
	if len(logs) > 0 {
		r.broadcast(protocol.NewActionLogs(logs))
	}

	switch r.state.Phase {
	case engine.PhasePlaying:
		// Re-announce on a round change even when the same player leads.
		if id := r.state.CurrentPlayerID; id != "" && (id != r.announcedTurn || r.state.Round != r.announcedRound) {
			r.announcedTurn = id
			r.announcedRound = r.state.Round
			steps := 0
			if p := r.state.Players[id]; p != nil {
				steps = p.Steps
			}
			r.broadcast(protocol.TurnStart(id, steps))
		}
	case engine.PhaseEnded:
		if !r.announcedEnd {
			r.announcedEnd = true
			reason := r.endReason
			if reason == "" {
				reason = "last_player_standing"
			}
			r.broadcast(protocol.GameEnded(r.state.WinnerID(), reason))
		}
	}
}

// persist snapshots fire-and-forget: marshal inside the loop, write
// from a goroutine. A crash loses at most the latest action.
func (r *Room) persist() {
	r.state.UpdatedAt = time.Now().UnixMilli()
	data, err := r.state.MarshalSnapshot()
	if err != nil {
		r.log.Error("marshal snapshot", zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.opts.Store.Save(ctx, r.id, data); err != nil {
			r.log.Warn("save snapshot", zap.Error(err))
		}
	}()
}

func (r *Room) pushDiscovery() {
	hostName := ""
	if h := r.state.Players[r.state.HostID]; h != nil {
		hostName = h.Name
	}
	r.opts.Registry.Upsert(registry.RoomInfo{
		ID:          r.id,
		HostID:      r.state.HostID,
		HostName:    hostName,
		PlayerCount: len(r.state.Players),
		MaxPlayers:  r.state.Settings.MaxPlayers,
		Phase:       r.state.Phase,
		Public:      r.state.Settings.Public,
		CreatedAt:   r.state.CreatedAt,
	})
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	data := msg.Encode()
	var dead []string
	for id, ch := range r.conns {
		select {
		case ch <- data:
		default:
			// Slow session, drop it rather than stall the room.
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		r.log.Warn("dropping slow session", zap.String("conn", id))
		r.detach(id)
	}
}

func (r *Room) sendTo(connID string, msg protocol.ServerMessage) {
	ch, ok := r.conns[connID]
	if !ok {
		return
	}
	select {
	case ch <- msg.Encode():
	default:
		r.detach(connID)
	}
}

func (r *Room) sendError(connID, message string) {
	r.sendTo(connID, protocol.Error(message))
}
