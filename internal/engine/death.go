package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// damage applies dmg to target and runs the death protocol when health
// hits zero. Defense (if any) is already folded into dmg by the caller;
// true damage paths pass the raw value.
func (g *GameState) damage(attacker, target *Player, dmg int) (killed bool) {
	if !target.Alive {
		return false
	}
	target.Health -= dmg
	if target.Health < 0 {
		target.Health = 0
	}
	if target.Health > 0 {
		return false
	}
	g.kill(attacker, target)
	return true
}

// heal restores health up to the target's max.
func (g *GameState) heal(target *Player, amount int) int {
	before := target.Health
	target.Health += amount
	if target.Health > target.MaxHealth {
		target.Health = target.MaxHealth
	}
	return target.Health - before
}

// kill marks the victim dead, assigns a provisional rank, drops their
// bombs, and turns their lootable items into a PendingLoot offer when a
// distinct living killer exists. Items not claimed are destroyed when
// the offer is consumed; they never hit the ground.
func (g *GameState) kill(killer, victim *Player) {
	victim.Alive = false
	victim.Steps = 0
	victim.DeathTime = time.Now().UnixMilli()
	victim.Rank = g.aliveCount() + 1
	g.dropBombs(victim.ID)

	var loot []Item
	for _, i := range victim.Inventory {
		if i != ItemFat {
			loot = append(loot, i)
		}
	}
	victim.Inventory = nil
	victim.PurchaseRights = nil

	if killer != nil && killer.ID != victim.ID && killer.Alive && len(loot) > 0 {
		g.PendingLoots = append(g.PendingLoots, &PendingLoot{
			ID:         uuid.NewString(),
			KillerID:   killer.ID,
			VictimID:   victim.ID,
			VictimName: victim.Name,
			Items:      loot,
		})
	}

	// Obligations owed by or to the dead are void.
	for i, id := range g.PendingTeleports {
		if id == victim.ID {
			g.PendingTeleports = append(g.PendingTeleports[:i], g.PendingTeleports[i+1:]...)
			break
		}
	}
	kept := g.PendingLoots[:0]
	for _, l := range g.PendingLoots {
		if l.KillerID != victim.ID {
			kept = append(kept, l)
		}
	}
	g.PendingLoots = kept

	g.checkGameEnd()
}

// checkGameEnd transitions to ended when a single player remains.
func (g *GameState) checkGameEnd() {
	if g.Phase != PhasePlaying {
		return
	}
	if g.aliveCount() != 1 {
		return
	}
	for _, p := range g.Players {
		if p.Alive {
			p.Rank = 1
		}
	}
	g.Phase = PhaseEnded
	g.CurrentPlayerID = ""
	g.PendingTeleports = nil
}

// endInMutualDestruction handles a detonation that leaves nobody alive:
// the bomber takes the win despite dying. Everyone else keeps their
// death order, later deaths ranking above earlier ones.
func (g *GameState) endInMutualDestruction(bomber *Player) {
	others := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.ID != bomber.ID {
			others = append(others, p)
		}
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].Rank < others[j].Rank
	})
	for i, p := range others {
		p.Rank = i + 2
	}
	bomber.Rank = 1
	g.Phase = PhaseEnded
	g.CurrentPlayerID = ""
	g.PendingTeleports = nil
}

// ForceEnd is the host's emergency stop: survivors are ranked by
// remaining health, the dead keep the ranks stamped at death.
func (g *GameState) ForceEnd() {
	if g.Phase == PhaseEnded {
		return
	}
	alive := g.AlivePlayers()
	ranked := make([]*Player, len(alive))
	copy(ranked, alive)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Health > ranked[j].Health
	})
	for i, p := range ranked {
		p.Rank = i + 1
	}
	g.Phase = PhaseEnded
	g.CurrentPlayerID = ""
	g.SelectingPlayerID = ""
	g.PendingTeleports = nil
}
