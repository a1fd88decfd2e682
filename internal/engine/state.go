package engine

import (
	"time"
)

type Phase string

const (
	PhaseWaiting        Phase = "waiting"
	PhaseClassSelection Phase = "class_selection"
	PhasePlaying        Phase = "playing"
	PhaseEnded          Phase = "ended"
)

type LocationKind string

const (
	LocCentral LocationKind = "central"
	LocCity    LocationKind = "city"
)

// Location is either the shared Central hub or a player-owned city.
// Cities connect only to Central, never to each other.
type Location struct {
	Kind   LocationKind `json:"type"`
	CityID string       `json:"cityId,omitempty"`
}

func Central() Location        { return Location{Kind: LocCentral} }
func City(owner string) Location { return Location{Kind: LocCity, CityID: owner} }

func (l Location) Same(o Location) bool {
	return l.Kind == o.Kind && l.CityID == o.CityID
}

// Adjacent reports whether o is exactly one hop away. Central touches
// every city; two cities are never adjacent.
func (l Location) Adjacent(o Location) bool {
	if l.Same(o) {
		return false
	}
	return l.Kind != o.Kind
}

// Reachable reports whether o is the same location or one hop away.
func (l Location) Reachable(o Location) bool {
	return l.Same(o) || l.Adjacent(o)
}

type Player struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Avatar         string   `json:"avatar,omitempty"`
	Health         int      `json:"health"`
	MaxHealth      int      `json:"maxHealth"`
	Location       Location `json:"location"`
	Class          Class    `json:"class,omitempty"`
	ClassOptions   []Class  `json:"classOptions,omitempty"`
	Inventory      []Item   `json:"inventory"`
	PurchaseRights []Item   `json:"purchaseRights"`
	Steps          int      `json:"stepsRemaining"`
	Alive          bool     `json:"isAlive"`
	Ready          bool     `json:"isReady"`
	Connected      bool     `json:"isConnected"`
	DeathTime      int64    `json:"deathTime,omitempty"`
	Rank           int      `json:"rank,omitempty"`
}

// CountItem returns how many copies of an item the player holds.
func (p *Player) CountItem(i Item) int {
	n := 0
	for _, held := range p.Inventory {
		if held == i {
			n++
		}
	}
	return n
}

func (p *Player) HasItem(i Item) bool { return p.CountItem(i) > 0 }

// RemoveItem drops one copy of an item, reporting whether one was held.
func (p *Player) RemoveItem(i Item) bool {
	for idx, held := range p.Inventory {
		if held == i {
			p.Inventory = append(p.Inventory[:idx], p.Inventory[idx+1:]...)
			return true
		}
	}
	return false
}

func (p *Player) HasRight(i Item) bool {
	for _, r := range p.PurchaseRights {
		if r == i {
			return true
		}
	}
	return false
}

func (p *Player) removeRight(i Item) {
	for idx, r := range p.PurchaseRights {
		if r == i {
			p.PurchaseRights = append(p.PurchaseRights[:idx], p.PurchaseRights[idx+1:]...)
			return
		}
	}
}

// Defense is the flat amount subtracted from knife/horse/arrow damage.
// Shirts only count for classes able to wear them; the fatty's fat adds
// one on top and cannot be stolen away.
func (p *Player) Defense() int {
	d := 0
	if canWearShirt(p.Class) {
		d += p.CountItem(ItemShirt)
	}
	if p.Class == ClassFatty && p.HasItem(ItemFat) {
		d++
	}
	return d
}

// Bomb is a merged counter: bombs placed by the same player at the same
// location stack into one entity.
type Bomb struct {
	OwnerID  string   `json:"playerId"`
	Location Location `json:"location"`
	Count    int      `json:"count"`
}

type EffectKind string

const (
	EffectPotion EffectKind = "potion"
	EffectRocket EffectKind = "rocket"
)

// DelayedEffect resolves at the boundary that opens ResolveAtRound, not
// a relative delay, so skipped rounds cannot drift it.
type DelayedEffect struct {
	ID             string     `json:"id"`
	CasterID       string     `json:"playerId"`
	Kind           EffectKind `json:"type"`
	TargetLocation Location   `json:"targetLocation"`
	Value          int        `json:"value"`
	ResolveAtRound int        `json:"resolveAtRound"`
}

// PendingLoot is created at death and consumed exactly once when the
// killer claims one item or declines.
type PendingLoot struct {
	ID         string `json:"id"`
	KillerID   string `json:"killerId"`
	VictimID   string `json:"victimId"`
	VictimName string `json:"victimName"`
	Items      []Item `json:"items"`
}

type ActionLog struct {
	ID         string       `json:"id"`
	Round      int          `json:"turn"`
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Kind       ActionKind   `json:"type"`
	Result     ActionResult `json:"actionResult"`
	Timestamp  int64        `json:"timestamp"`
}

// maxLogs bounds the in-state action log ring.
const maxLogs = 50

type Settings struct {
	MinPlayers        int  `json:"minPlayers"`
	MaxPlayers        int  `json:"maxPlayers"`
	Public            bool `json:"isPublic"`
	InitialHealth     int  `json:"initialHealth"`
	ClassOptionsCount int  `json:"classOptionsCount"`
}

func DefaultSettings(public bool) Settings {
	return Settings{
		MinPlayers:        2,
		MaxPlayers:        9,
		Public:            public,
		InitialHealth:     10,
		ClassOptionsCount: 2,
	}
}

// GameState is the full per-room aggregate. It is owned and mutated by
// exactly one room session; nothing here is safe for concurrent use.
type GameState struct {
	RoomID           string
	HostID           string
	Phase            Phase
	Players          map[string]*Player
	JoinOrder        []string
	TurnOrder        []string
	Round            int
	CurrentPlayerID  string
	SelectingPlayerID string
	Bombs            []*Bomb
	DelayedEffects   []*DelayedEffect
	PendingLoots     []*PendingLoot
	PendingTeleports []string
	Logs             []ActionLog
	Settings         Settings
	CreatedAt        int64
	UpdatedAt        int64
}

func NewGameState(roomID, hostID string, public bool) *GameState {
	return &GameState{
		RoomID:    roomID,
		HostID:    hostID,
		Phase:     PhaseWaiting,
		Players:   make(map[string]*Player),
		Settings:  DefaultSettings(public),
		CreatedAt: time.Now().UnixMilli(),
	}
}

// AddPlayer joins a new player during the waiting phase. Every player
// starts in their own city.
func (g *GameState) AddPlayer(id, name, avatar string) *Player {
	p := &Player{
		ID:        id,
		Name:      name,
		Avatar:    avatar,
		Health:    g.Settings.InitialHealth,
		MaxHealth: g.Settings.InitialHealth,
		Location:  City(id),
		Alive:     true,
		Connected: true,
	}
	g.Players[id] = p
	g.JoinOrder = append(g.JoinOrder, id)
	return p
}

// RemovePlayer drops a player entirely; only legal in the waiting phase.
func (g *GameState) RemovePlayer(id string) {
	delete(g.Players, id)
	for idx, pid := range g.JoinOrder {
		if pid == id {
			g.JoinOrder = append(g.JoinOrder[:idx], g.JoinOrder[idx+1:]...)
			break
		}
	}
	if g.HostID == id && len(g.JoinOrder) > 0 {
		g.HostID = g.JoinOrder[0]
	}
}

// AlivePlayers returns living players in turn order.
func (g *GameState) AlivePlayers() []*Player {
	var out []*Player
	for _, id := range g.TurnOrder {
		if p := g.Players[id]; p != nil && p.Alive {
			out = append(out, p)
		}
	}
	if g.TurnOrder == nil {
		for _, id := range g.JoinOrder {
			if p := g.Players[id]; p != nil && p.Alive {
				out = append(out, p)
			}
		}
	}
	return out
}

func (g *GameState) aliveCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// PlayersAt returns living players standing at a location.
func (g *GameState) PlayersAt(loc Location) []*Player {
	var out []*Player
	for _, id := range g.orderedIDs() {
		p := g.Players[id]
		if p.Alive && p.Location.Same(loc) {
			out = append(out, p)
		}
	}
	return out
}

// orderedIDs walks players deterministically: turn order when fixed,
// join order otherwise.
func (g *GameState) orderedIDs() []string {
	if len(g.TurnOrder) == len(g.Players) {
		return g.TurnOrder
	}
	return g.JoinOrder
}

// WinnerID returns the rank-1 player id, or "" while the game runs.
func (g *GameState) WinnerID() string {
	for _, p := range g.Players {
		if p.Rank == 1 {
			return p.ID
		}
	}
	return ""
}

func (g *GameState) AppendLog(l ActionLog) {
	g.Logs = append(g.Logs, l)
	if len(g.Logs) > maxLogs {
		g.Logs = g.Logs[len(g.Logs)-maxLogs:]
	}
}

// ClassCount returns how many players (living or dead) hold a class.
func (g *GameState) ClassCount(c Class) int {
	n := 0
	for _, p := range g.Players {
		if p.Class == c {
			n++
		}
	}
	return n
}

// bombAt finds the owner's merged bomb counter at a location.
func (g *GameState) bombAt(ownerID string, loc Location) *Bomb {
	for _, b := range g.Bombs {
		if b.OwnerID == ownerID && b.Location.Same(loc) {
			return b
		}
	}
	return nil
}

// dropBombs removes every bomb owned by a player.
func (g *GameState) dropBombs(ownerID string) {
	kept := g.Bombs[:0]
	for _, b := range g.Bombs {
		if b.OwnerID != ownerID {
			kept = append(kept, b)
		}
	}
	g.Bombs = kept
}

// ResetForRematch returns an ended game to the waiting phase, keeping
// player identities but clearing all per-game state.
func (g *GameState) ResetForRematch() {
	g.Phase = PhaseWaiting
	g.Round = 0
	g.CurrentPlayerID = ""
	g.SelectingPlayerID = ""
	g.TurnOrder = nil
	g.Bombs = nil
	g.DelayedEffects = nil
	g.PendingLoots = nil
	g.PendingTeleports = nil
	g.Logs = nil
	for _, p := range g.Players {
		p.Health = g.Settings.InitialHealth
		p.MaxHealth = g.Settings.InitialHealth
		p.Location = City(p.ID)
		p.Class = ""
		p.ClassOptions = nil
		p.Inventory = nil
		p.PurchaseRights = nil
		p.Steps = 0
		p.Alive = true
		p.Ready = false
		p.DeathTime = 0
		p.Rank = 0
	}
}
