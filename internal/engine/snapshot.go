package engine

import (
	"encoding/json"
	"fmt"
)

// Serialized is the wire and storage shape of a GameState. The player
// map travels as an ordered list (join order); receivers rebuild the
// map and must not read turn order out of list order; TurnOrder is its
// own field.
type Serialized struct {
	RoomID            string           `json:"roomId"`
	HostID            string           `json:"hostId"`
	Phase             Phase            `json:"phase"`
	Players           []*Player        `json:"players"`
	TurnOrder         []string         `json:"turnOrder,omitempty"`
	Round             int              `json:"currentTurn"`
	CurrentPlayerID   string           `json:"currentPlayerId,omitempty"`
	SelectingPlayerID string           `json:"currentClassSelectionPlayerId,omitempty"`
	Bombs             []*Bomb          `json:"bombs"`
	DelayedEffects    []*DelayedEffect `json:"delayedEffects"`
	PendingLoots      []*PendingLoot   `json:"pendingLoots"`
	PendingTeleports  []string         `json:"pendingAlienTeleports"`
	Logs              []ActionLog      `json:"actionLogs,omitempty"`
	Settings          Settings         `json:"settings"`
	CreatedAt         int64            `json:"createdAt"`
	UpdatedAt         int64            `json:"updatedAt,omitempty"`
}

// Serialize flattens the state for broadcast or storage. Logs can be
// omitted to keep routine state broadcasts small; incremental log
// messages carry them separately.
func (g *GameState) Serialize(includeLogs bool) *Serialized {
	s := &Serialized{
		RoomID:            g.RoomID,
		HostID:            g.HostID,
		Phase:             g.Phase,
		TurnOrder:         g.TurnOrder,
		Round:             g.Round,
		CurrentPlayerID:   g.CurrentPlayerID,
		SelectingPlayerID: g.SelectingPlayerID,
		Bombs:             g.Bombs,
		DelayedEffects:    g.DelayedEffects,
		PendingLoots:      g.PendingLoots,
		PendingTeleports:  g.PendingTeleports,
		Settings:          g.Settings,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
	for _, id := range g.JoinOrder {
		if p := g.Players[id]; p != nil {
			s.Players = append(s.Players, p)
		}
	}
	if includeLogs {
		s.Logs = g.Logs
	}
	return s
}

// MarshalSnapshot produces the durable blob for this room.
func (g *GameState) MarshalSnapshot() ([]byte, error) {
	data, err := json.Marshal(g.Serialize(true))
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// LoadSnapshot restores a GameState from a stored blob. The player map
// is rebuilt keyed by id, and settings fields added after initial
// deployment fall back to their defaults instead of failing the load.
func LoadSnapshot(data []byte) (*GameState, error) {
	var s Serialized
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	g := &GameState{
		RoomID:            s.RoomID,
		HostID:            s.HostID,
		Phase:             s.Phase,
		Players:           make(map[string]*Player, len(s.Players)),
		TurnOrder:         s.TurnOrder,
		Round:             s.Round,
		CurrentPlayerID:   s.CurrentPlayerID,
		SelectingPlayerID: s.SelectingPlayerID,
		Bombs:             s.Bombs,
		DelayedEffects:    s.DelayedEffects,
		PendingLoots:      s.PendingLoots,
		PendingTeleports:  s.PendingTeleports,
		Logs:              s.Logs,
		Settings:          s.Settings,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	for _, p := range s.Players {
		g.Players[p.ID] = p
		g.JoinOrder = append(g.JoinOrder, p.ID)
	}

	// Legacy snapshots predate some settings; default rather than fail.
	if g.Settings.MinPlayers == 0 {
		g.Settings.MinPlayers = 2
	}
	if g.Settings.MaxPlayers == 0 {
		g.Settings.MaxPlayers = 9
	}
	if g.Settings.InitialHealth == 0 {
		g.Settings.InitialHealth = 10
	}
	if g.Settings.ClassOptionsCount == 0 {
		g.Settings.ClassOptionsCount = 2
	}
	return g, nil
}
