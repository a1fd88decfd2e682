package engine

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// StartClassSelection fixes the shuffled turn order and hands the first
// player their class offer. Only call after host/min-player checks.
func (g *GameState) StartClassSelection(rng *rand.Rand) {
	g.Phase = PhaseClassSelection
	g.TurnOrder = append([]string(nil), g.JoinOrder...)
	rng.Shuffle(len(g.TurnOrder), func(i, j int) {
		g.TurnOrder[i], g.TurnOrder[j] = g.TurnOrder[j], g.TurnOrder[i]
	})
	for _, p := range g.Players {
		p.ClassOptions = nil
		p.Ready = false
	}
	first := g.TurnOrder[0]
	g.SelectingPlayerID = first
	g.Players[first].ClassOptions = g.offerClasses(rng)
}

// offerClasses samples classOptionsCount distinct classes that still
// have room under the per-class cap. Fewer may come back when the pool
// runs thin; a saturated class is never offered.
func (g *GameState) offerClasses(rng *rand.Rand) []Class {
	var avail []Class
	for _, c := range AllClasses() {
		if g.ClassCount(c) < MaxPerClass {
			avail = append(avail, c)
		}
	}
	rng.Shuffle(len(avail), func(i, j int) { avail[i], avail[j] = avail[j], avail[i] })
	n := g.Settings.ClassOptionsCount
	if n > len(avail) {
		n = len(avail)
	}
	return avail[:n]
}

// SelectClass applies one pick in strict selection order, grants the
// class kit, and either advances the selector or starts gameplay.
func (g *GameState) SelectClass(playerID string, c Class, rng *rand.Rand) error {
	if g.Phase != PhaseClassSelection {
		return ErrWrongPhase
	}
	p := g.Players[playerID]
	if p == nil {
		return ErrUnknownPlayer
	}
	if g.SelectingPlayerID != playerID {
		return ErrNotYourPick
	}
	offered := false
	for _, opt := range p.ClassOptions {
		if opt == c {
			offered = true
			break
		}
	}
	if !offered {
		return ErrBadClass
	}
	if g.ClassCount(c) >= MaxPerClass {
		return ErrClassSaturated
	}

	p.Class = c
	p.Inventory = InitialInventory(c)
	p.PurchaseRights = InitialRights(c)
	p.Ready = true
	p.ClassOptions = nil

	idx := indexOf(g.TurnOrder, playerID)
	if idx+1 < len(g.TurnOrder) {
		next := g.TurnOrder[idx+1]
		g.SelectingPlayerID = next
		g.Players[next].ClassOptions = g.offerClasses(rng)
		return nil
	}
	g.SelectingPlayerID = ""
	g.startPlaying(rng)
	return nil
}

func (g *GameState) startPlaying(rng *rand.Rand) {
	g.Phase = PhasePlaying
	g.Round = 1
	g.distributeSteps(rng)
	g.CurrentPlayerID = g.TurnOrder[0]
}

// distributeSteps resets every living player to the guaranteed step and
// hands out a bonus pool of exactly one draw per living player. The dead
// are zeroed here too, so the steps invariant holds even for states that
// arrived via a snapshot.
func (g *GameState) distributeSteps(rng *rand.Rand) {
	alive := g.AlivePlayers()
	for _, p := range g.Players {
		if !p.Alive {
			p.Steps = 0
		}
	}
	for _, p := range alive {
		p.Steps = 1
	}
	for i := 0; i < len(alive); i++ {
		alive[rng.Intn(len(alive))].Steps++
	}
}

// AdvanceTurn moves the pointer to the next living player, or runs the
// round boundary when the order wraps. suspended is true when the round
// is held open by pending free-teleport obligations; the caller closes
// it with CloseRound once the set drains.
func (g *GameState) AdvanceTurn(rng *rand.Rand) (logs []ActionLog, suspended bool) {
	if g.Phase != PhasePlaying {
		return nil, false
	}
	idx := indexOf(g.TurnOrder, g.CurrentPlayerID)
	for j := idx + 1; j < len(g.TurnOrder); j++ {
		p := g.Players[g.TurnOrder[j]]
		if p != nil && p.Alive && p.Steps > 0 {
			g.CurrentPlayerID = p.ID
			return nil, false
		}
	}
	return g.beginRoundBoundary(rng)
}

// beginRoundBoundary registers passive-teleport obligations and either
// suspends the round or closes it outright.
func (g *GameState) beginRoundBoundary(rng *rand.Rand) ([]ActionLog, bool) {
	var pending []string
	for _, p := range g.AlivePlayers() {
		if p.CountItem(ItemUFO) >= 2 {
			pending = append(pending, p.ID)
		}
	}
	if len(pending) > 0 {
		g.PendingTeleports = pending
		g.CurrentPlayerID = ""
		return nil, true
	}
	return g.CloseRound(rng), false
}

// CloseRound finishes a round boundary: bump the round counter, resolve
// due delayed effects in queue order, reshuffle the living into a fresh
// turn order, and redistribute steps. Must not run while obligations
// are outstanding.
func (g *GameState) CloseRound(rng *rand.Rand) []ActionLog {
	if g.Phase != PhasePlaying || len(g.PendingTeleports) > 0 {
		return nil
	}
	g.Round++
	logs := g.resolveDelayedEffects()
	if g.Phase != PhasePlaying {
		return logs
	}

	g.reshuffleTurnOrder(rng)
	g.distributeSteps(rng)
	for _, id := range g.TurnOrder {
		if p := g.Players[id]; p != nil && p.Alive {
			g.CurrentPlayerID = id
			break
		}
	}
	return logs
}

// resolveDelayedEffects applies every effect whose round has arrived,
// strictly in the order they were queued. Targets are whoever stands at
// the location now, not at cast time. Rocket damage ignores defense.
func (g *GameState) resolveDelayedEffects() []ActionLog {
	var due []*DelayedEffect
	var future []*DelayedEffect
	for _, e := range g.DelayedEffects {
		if e.ResolveAtRound <= g.Round {
			due = append(due, e)
		} else {
			future = append(future, e)
		}
	}
	g.DelayedEffects = future

	var logs []ActionLog
	for _, e := range due {
		if g.Phase != PhasePlaying {
			break
		}
		caster := g.Players[e.CasterID]
		casterName := "unknown"
		if caster != nil {
			casterName = caster.Name
		}
		for _, t := range g.PlayersAt(e.TargetLocation) {
			var l ActionLog
			switch e.Kind {
			case EffectPotion:
				healed := g.heal(t, e.Value)
				loc := e.TargetLocation
				l = ActionLog{
					ID:         uuid.NewString(),
					Round:      g.Round,
					PlayerID:   e.CasterID,
					PlayerName: casterName,
					Kind:       ActionPotion,
					Result: ActionResult{
						Kind:       actionPotionHeal,
						Target:     t.ID,
						TargetName: t.Name,
						Location:   &loc,
						Healed:     healed,
					},
					Timestamp: time.Now().UnixMilli(),
				}
			case EffectRocket:
				killed := g.damage(caster, t, e.Value)
				loc := e.TargetLocation
				l = ActionLog{
					ID:         uuid.NewString(),
					Round:      g.Round,
					PlayerID:   e.CasterID,
					PlayerName: casterName,
					Kind:       ActionRocket,
					Result: ActionResult{
						Kind:       actionRocketHit,
						Target:     t.ID,
						TargetName: t.Name,
						Location:   &loc,
						Damage:     e.Value,
						Killed:     killed,
					},
					Timestamp: time.Now().UnixMilli(),
				}
			}
			g.AppendLog(l)
			logs = append(logs, l)
		}
	}
	return logs
}

// reshuffleTurnOrder shuffles the living and appends the dead, inert,
// at the tail.
func (g *GameState) reshuffleTurnOrder(rng *rand.Rand) {
	var alive, dead []string
	for _, id := range g.TurnOrder {
		if p := g.Players[id]; p != nil && p.Alive {
			alive = append(alive, id)
		} else if p != nil {
			dead = append(dead, id)
		}
	}
	rng.Shuffle(len(alive), func(i, j int) { alive[i], alive[j] = alive[j], alive[i] })
	g.TurnOrder = append(alive, dead...)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
