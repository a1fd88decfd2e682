package engine

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
)

var ErrNotPurchasable = errors.New("item cannot be purchased")

// classGate maps class-exclusive actions to the class that may use them.
var classGate = map[ActionKind]Class{
	ActionPotion:    ClassMage,
	ActionArrow:     ClassArcher,
	ActionRocket:    ClassRocketeer,
	ActionPlaceBomb: ClassBomber,
	ActionDetonate:  ClassBomber,
	ActionPunch:     ClassBoxer,
	ActionKick:      ClassMonk,
	ActionTeleport:  ClassAlien,
	ActionHug:       ClassFatty,
}

// actionCost returns the step cost of an action before it runs.
func actionCost(act Action) (int, error) {
	switch act.Kind {
	case ActionMove, ActionRob, ActionKnife, ActionHorse, ActionArrow,
		ActionRocket, ActionPlaceBomb, ActionDetonate, ActionPunch,
		ActionKick, ActionTeleport:
		return 1, nil
	case ActionHug:
		return 2, nil
	case ActionPurchase:
		cost, ok := PurchaseCost(act.Right)
		if !ok {
			return 0, ErrNotPurchasable
		}
		return cost, nil
	case ActionPotion:
		if act.Value < 1 {
			return 0, ErrBadValue
		}
		return act.Value, nil
	default:
		return 0, ErrUnknownAction
	}
}

// Resolve validates and applies a single action. It is all-or-nothing:
// every precondition is checked before the first mutation, so a returned
// error guarantees the state is untouched. Free actions (claim_loot,
// alien_teleport) skip the turn-ownership and step checks.
func Resolve(g *GameState, playerID string, act Action, rng *rand.Rand) (ActionResult, error) {
	if g.Phase != PhasePlaying {
		return ActionResult{}, ErrWrongPhase
	}
	p := g.Players[playerID]
	if p == nil {
		return ActionResult{}, ErrUnknownPlayer
	}

	if act.Kind.IsFree() {
		if act.Kind == ActionClaimLoot {
			return resolveClaimLoot(g, p, act)
		}
		return resolveAlienWarp(g, p, act)
	}

	if !p.Alive {
		return ActionResult{}, ErrNotAlive
	}
	if g.CurrentPlayerID != playerID {
		return ActionResult{}, ErrWrongTurn
	}
	cost, err := actionCost(act)
	if err != nil {
		return ActionResult{}, err
	}
	if p.Steps < cost {
		return ActionResult{}, ErrNoSteps
	}
	if want, gated := classGate[act.Kind]; gated && p.Class != want {
		return ActionResult{}, ErrClassForbidden
	}

	var res ActionResult
	switch act.Kind {
	case ActionMove:
		res, err = resolveMove(g, p, act)
	case ActionPurchase:
		res, err = resolvePurchase(g, p, act)
	case ActionRob:
		res, err = resolveRob(g, p, act, rng)
	case ActionKnife:
		res, err = resolveKnife(g, p, act)
	case ActionHorse:
		res, err = resolveHorse(g, p, act)
	case ActionArrow:
		res, err = resolveArrow(g, p, act)
	case ActionPotion:
		res, err = resolvePotion(g, p, act)
	case ActionRocket:
		res, err = resolveRocket(g, p, act)
	case ActionPlaceBomb:
		res, err = resolvePlaceBomb(g, p)
	case ActionDetonate:
		res, err = resolveDetonate(g, p)
	case ActionPunch:
		res, err = resolvePunch(g, p, act)
	case ActionKick:
		res, err = resolveKick(g, p, act)
	case ActionTeleport:
		res, err = resolveTeleport(g, p, act)
	case ActionHug:
		res, err = resolveHug(g, p, act)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return ActionResult{}, err
	}

	p.Steps -= cost
	if !p.Alive {
		// Self-inflicted death (own detonation) zeroes the budget.
		p.Steps = 0
	}
	return res, nil
}

func (g *GameState) validLocation(loc Location) bool {
	switch loc.Kind {
	case LocCentral:
		return loc.CityID == ""
	case LocCity:
		_, ok := g.Players[loc.CityID]
		return ok
	default:
		return false
	}
}

func (g *GameState) livingTarget(id string) (*Player, error) {
	if id == "" {
		return nil, ErrMissingTarget
	}
	t := g.Players[id]
	if t == nil || !t.Alive {
		return nil, ErrBadTarget
	}
	return t, nil
}

func resolveMove(g *GameState, p *Player, act Action) (ActionResult, error) {
	if act.Location == nil || !g.validLocation(*act.Location) {
		return ActionResult{}, ErrBadLocation
	}
	p.Location = *act.Location
	return ActionResult{Kind: ActionMove, Location: act.Location}, nil
}

func resolvePurchase(g *GameState, p *Player, act Action) (ActionResult, error) {
	if p.Location.Kind != LocCity || p.Location.CityID != p.ID {
		return ActionResult{}, ErrNotYourCity
	}
	if !p.HasRight(act.Right) {
		return ActionResult{}, ErrMissingRight
	}
	if !IsConsumableRight(act.Right) {
		p.removeRight(act.Right)
	}
	p.Inventory = append(p.Inventory, act.Right)
	return ActionResult{Kind: ActionPurchase, Item: act.Right}, nil
}

func resolveKnife(g *GameState, p *Player, act Action) (ActionResult, error) {
	t, err := g.livingTarget(act.Target)
	if err != nil {
		return ActionResult{}, err
	}
	if !p.Location.Same(t.Location) {
		return ActionResult{}, ErrOutOfRange
	}
	if !canUseKnife(p.Class) {
		return ActionResult{}, ErrClassForbidden
	}
	if !p.HasItem(ItemKnife) {
		return ActionResult{}, ErrMissingItem
	}

	dmg := p.CountItem(ItemKnife) - t.Defense() + 1
	if dmg < 0 {
		dmg = 0
	}
	// Vampire passive: 1 HP back on every knife attack, win or miss.
	if p.Class == ClassVampire && p.Health < p.MaxHealth {
		p.Health++
	}
	killed := g.damage(p, t, dmg)
	return ActionResult{Kind: ActionKnife, Target: t.ID, TargetName: t.Name, Damage: dmg, Killed: killed}, nil
}

func resolveHorse(g *GameState, p *Player, act Action) (ActionResult, error) {
	t, err := g.livingTarget(act.Target)
	if err != nil {
		return ActionResult{}, err
	}
	if p.Location.Kind != LocCity || !p.Location.Same(t.Location) {
		return ActionResult{}, ErrOutOfRange
	}
	if !canUseHorse(p.Class) {
		return ActionResult{}, ErrClassForbidden
	}
	if !p.HasItem(ItemHorse) {
		return ActionResult{}, ErrMissingItem
	}

	dmg := 2 + p.CountItem(ItemHorse) - t.Defense() + 1
	if dmg < 0 {
		dmg = 0
	}
	t.Location = Central()
	killed := g.damage(p, t, dmg)
	return ActionResult{Kind: ActionHorse, Target: t.ID, TargetName: t.Name, Damage: dmg, Killed: killed}, nil
}

func resolveArrow(g *GameState, p *Player, act Action) (ActionResult, error) {
	t, err := g.livingTarget(act.Target)
	if err != nil {
		return ActionResult{}, err
	}
	bows := p.CountItem(ItemBow)
	if bows == 0 {
		return ActionResult{}, ErrMissingItem
	}
	if !p.HasItem(ItemArrow) {
		return ActionResult{}, ErrMissingItem
	}
	if !p.Location.Reachable(t.Location) {
		return ActionResult{}, ErrOutOfRange
	}

	p.RemoveItem(ItemArrow)
	dmg := bows - t.Defense() + 1
	if dmg < 0 {
		dmg = 0
	}
	killed := g.damage(p, t, dmg)
	return ActionResult{Kind: ActionArrow, Target: t.ID, TargetName: t.Name, Damage: dmg, Killed: killed}, nil
}

func resolvePotion(g *GameState, p *Player, act Action) (ActionResult, error) {
	if act.Location == nil || !g.validLocation(*act.Location) {
		return ActionResult{}, ErrBadLocation
	}
	if !p.HasRight(ItemPotion) {
		return ActionResult{}, ErrMissingRight
	}
	g.DelayedEffects = append(g.DelayedEffects, &DelayedEffect{
		ID:             uuid.NewString(),
		CasterID:       p.ID,
		Kind:           EffectPotion,
		TargetLocation: *act.Location,
		Value:          act.Value,
		ResolveAtRound: g.Round + 1,
	})
	return ActionResult{Kind: ActionPotion, Location: act.Location, Value: act.Value}, nil
}

func resolveRocket(g *GameState, p *Player, act Action) (ActionResult, error) {
	if act.Location == nil || !g.validLocation(*act.Location) {
		return ActionResult{}, ErrBadLocation
	}
	launchers := p.CountItem(ItemRocketLauncher)
	if launchers == 0 {
		return ActionResult{}, ErrMissingItem
	}
	if !p.HasItem(ItemRocketAmmo) {
		return ActionResult{}, ErrMissingItem
	}

	p.RemoveItem(ItemRocketAmmo)
	dmg := 1 + launchers
	g.DelayedEffects = append(g.DelayedEffects, &DelayedEffect{
		ID:             uuid.NewString(),
		CasterID:       p.ID,
		Kind:           EffectRocket,
		TargetLocation: *act.Location,
		Value:          dmg,
		ResolveAtRound: g.Round + 1,
	})
	return ActionResult{Kind: ActionRocket, Location: act.Location, Damage: dmg}, nil
}

func resolvePlaceBomb(g *GameState, p *Player) (ActionResult, error) {
	if !p.HasItem(ItemBomb) {
		return ActionResult{}, ErrMissingItem
	}
	p.RemoveItem(ItemBomb)
	if b := g.bombAt(p.ID, p.Location); b != nil {
		b.Count++
	} else {
		loc := p.Location
		g.Bombs = append(g.Bombs, &Bomb{OwnerID: p.ID, Location: loc, Count: 1})
	}
	loc := p.Location
	return ActionResult{Kind: ActionPlaceBomb, Location: &loc}, nil
}

func resolveDetonate(g *GameState, p *Player) (ActionResult, error) {
	var own []*Bomb
	for _, b := range g.Bombs {
		if b.OwnerID == p.ID {
			own = append(own, b)
		}
	}
	if len(own) == 0 {
		return ActionResult{}, ErrNoBombs
	}

	var victims []BlastVictim
	for _, b := range own {
		for _, v := range g.PlayersAt(b.Location) {
			killed := g.damage(p, v, b.Count)
			victims = append(victims, BlastVictim{Name: v.Name, Damage: b.Count, Killed: killed})
		}
	}
	g.dropBombs(p.ID)

	// Mutual destruction crowns the bomber.
	if g.aliveCount() == 0 {
		g.endInMutualDestruction(p)
	}
	return ActionResult{Kind: ActionDetonate, Victims: victims}, nil
}

func resolvePunch(g *GameState, p *Player, act Action) (ActionResult, error) {
	t, err := g.livingTarget(act.Target)
	if err != nil {
		return ActionResult{}, err
	}
	base, ok := gloveDamage[act.Item]
	if !ok {
		return ActionResult{}, ErrMissingItem
	}
	count := p.CountItem(act.Item)
	if count == 0 {
		return ActionResult{}, ErrMissingItem
	}
	if !p.Location.Same(t.Location) {
		return ActionResult{}, ErrOutOfRange
	}

	dmg := base + count - 1
	killed := g.damage(p, t, dmg)
	return ActionResult{Kind: ActionPunch, Target: t.ID, TargetName: t.Name, Item: act.Item, Damage: dmg, Killed: killed}, nil
}

func resolveKick(g *GameState, p *Player, act Action) (ActionResult, error) {
	t, err := g.livingTarget(act.Target)
	if err != nil {
		return ActionResult{}, err
	}
	base, ok := beltDamage[act.Item]
	if !ok {
		return ActionResult{}, ErrMissingItem
	}
	count := p.CountItem(act.Item)
	if count == 0 {
		return ActionResult{}, ErrMissingItem
	}
	// The silver belt reaches one hop; bronze and gold need contact.
	if act.Item == ItemSilverBelt {
		if !p.Location.Reachable(t.Location) {
			return ActionResult{}, ErrOutOfRange
		}
	} else if !p.Location.Same(t.Location) {
		return ActionResult{}, ErrOutOfRange
	}

	dmg := base + count - 1
	if t.Location.Kind == LocCentral {
		t.Location = City(t.ID)
	} else {
		t.Location = Central()
	}
	killed := g.damage(p, t, dmg)
	return ActionResult{Kind: ActionKick, Target: t.ID, TargetName: t.Name, Item: act.Item, Damage: dmg, Killed: killed}, nil
}

func resolveTeleport(g *GameState, p *Player, act Action) (ActionResult, error) {
	if act.Location == nil || !g.validLocation(*act.Location) {
		return ActionResult{}, ErrBadLocation
	}
	if !p.HasItem(ItemUFO) {
		return ActionResult{}, ErrMissingItem
	}
	p.Location = *act.Location
	return ActionResult{Kind: ActionTeleport, Location: act.Location}, nil
}

func resolveHug(g *GameState, p *Player, act Action) (ActionResult, error) {
	t, err := g.livingTarget(act.Target)
	if err != nil {
		return ActionResult{}, err
	}
	if act.Location == nil || !g.validLocation(*act.Location) {
		return ActionResult{}, ErrBadLocation
	}
	if !p.Location.Same(t.Location) {
		return ActionResult{}, ErrOutOfRange
	}
	if !p.Location.Adjacent(*act.Location) {
		return ActionResult{}, ErrOutOfRange
	}
	p.Location = *act.Location
	t.Location = *act.Location
	return ActionResult{Kind: ActionHug, Target: t.ID, TargetName: t.Name, Location: act.Location}, nil
}

func resolveRob(g *GameState, p *Player, act Action, rng *rand.Rand) (ActionResult, error) {
	t, err := g.livingTarget(act.Target)
	if err != nil {
		return ActionResult{}, err
	}
	if !p.Location.Same(t.Location) {
		return ActionResult{}, ErrOutOfRange
	}

	// Fat is bound to its owner; purchase rights are never stealable.
	var candidates []Item
	for _, i := range t.Inventory {
		if i != ItemFat {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return ActionResult{}, ErrNothingToRob
	}

	stolen := act.Item
	if stolen != "" {
		if stolen == ItemFat || !t.HasItem(stolen) {
			return ActionResult{}, ErrNothingToRob
		}
	} else {
		stolen = candidates[rng.Intn(len(candidates))]
	}
	t.RemoveItem(stolen)
	p.Inventory = append(p.Inventory, stolen)
	return ActionResult{Kind: ActionRob, Target: t.ID, TargetName: t.Name, Item: stolen, Success: true}, nil
}

func resolveClaimLoot(g *GameState, p *Player, act Action) (ActionResult, error) {
	idx := -1
	for i, l := range g.PendingLoots {
		if l.KillerID != p.ID {
			continue
		}
		if act.LootID == "" || act.LootID == l.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ActionResult{}, ErrNoPendingLoot
	}
	loot := g.PendingLoots[idx]

	res := ActionResult{Kind: ActionClaimLoot, Target: loot.VictimID, TargetName: loot.VictimName}
	if act.Decline {
		res.Success = false
	} else {
		found := false
		for _, i := range loot.Items {
			if i == act.Item {
				found = true
				break
			}
		}
		if act.Item == "" || !found {
			return ActionResult{}, ErrMissingItem
		}
		p.Inventory = append(p.Inventory, act.Item)
		res.Item = act.Item
		res.Success = true
	}
	// Claim or decline, the offer is consumed; the remnants are gone.
	g.PendingLoots = append(g.PendingLoots[:idx], g.PendingLoots[idx+1:]...)
	return res, nil
}

func resolveAlienWarp(g *GameState, p *Player, act Action) (ActionResult, error) {
	idx := -1
	for i, id := range g.PendingTeleports {
		if id == p.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ActionResult{}, ErrNoObligation
	}
	if act.Location != nil {
		if !g.validLocation(*act.Location) {
			return ActionResult{}, ErrBadLocation
		}
		p.Location = *act.Location
	}
	// A nil location is an explicit "stay put"; the obligation clears
	// either way.
	g.PendingTeleports = append(g.PendingTeleports[:idx], g.PendingTeleports[idx+1:]...)
	return ActionResult{Kind: ActionAlienWarp, Location: act.Location}, nil
}
