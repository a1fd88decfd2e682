package engine

import (
	"errors"
	"math/rand"
	"testing"
)

func testRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

// playingState builds a running game with the given player ids, first
// id as host and current actor, everyone holding a generous step
// budget. Tests set classes and inventories directly.
func playingState(ids ...string) *GameState {
	g := NewGameState("room", ids[0], false)
	for _, id := range ids {
		g.AddPlayer(id, "name-"+id, "")
	}
	g.Phase = PhasePlaying
	g.TurnOrder = append([]string(nil), ids...)
	g.Round = 1
	g.CurrentPlayerID = ids[0]
	for _, p := range g.Players {
		p.Steps = 5
	}
	return g
}

func mustResolve(t *testing.T, g *GameState, playerID string, act Action) ActionResult {
	t.Helper()
	res, err := Resolve(g, playerID, act, testRand())
	if err != nil {
		t.Fatalf("resolve %s: %v", act.Kind, err)
	}
	return res
}

func TestResolve_Preconditions(t *testing.T) {
	central := Central()
	tests := []struct {
		name    string
		prep    func(g *GameState)
		actor   string
		act     Action
		wantErr error
	}{
		{
			name:    "wrong phase",
			prep:    func(g *GameState) { g.Phase = PhaseWaiting },
			actor:   "a",
			act:     Action{Kind: ActionMove, Location: &central},
			wantErr: ErrWrongPhase,
		},
		{
			name:    "unknown player",
			prep:    func(g *GameState) {},
			actor:   "ghost",
			act:     Action{Kind: ActionMove, Location: &central},
			wantErr: ErrUnknownPlayer,
		},
		{
			name:    "not your turn",
			prep:    func(g *GameState) {},
			actor:   "b",
			act:     Action{Kind: ActionMove, Location: &central},
			wantErr: ErrWrongTurn,
		},
		{
			name:    "dead actor",
			prep:    func(g *GameState) { g.Players["a"].Alive = false },
			actor:   "a",
			act:     Action{Kind: ActionMove, Location: &central},
			wantErr: ErrNotAlive,
		},
		{
			name:    "insufficient steps",
			prep:    func(g *GameState) { g.Players["a"].Steps = 1 },
			actor:   "a",
			act:     Action{Kind: ActionHug, Target: "b", Location: &central},
			wantErr: ErrNoSteps,
		},
		{
			name:    "class gate",
			prep:    func(g *GameState) { g.Players["a"].Class = ClassMage },
			actor:   "a",
			act:     Action{Kind: ActionPunch, Target: "b", Item: ItemBronzeGlove},
			wantErr: ErrClassForbidden,
		},
		{
			name:    "unknown action kind",
			prep:    func(g *GameState) {},
			actor:   "a",
			act:     Action{Kind: "yodel"},
			wantErr: ErrUnknownAction,
		},
		{
			name:    "potion magnitude below one",
			prep:    func(g *GameState) { g.Players["a"].Class = ClassMage },
			actor:   "a",
			act:     Action{Kind: ActionPotion, Location: &central, Value: 0},
			wantErr: ErrBadValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := playingState("a", "b")
			tt.prep(g)
			before := g.Players["a"].Steps
			_, err := Resolve(g, tt.actor, tt.act, testRand())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
			if p := g.Players["a"]; p.Steps != before {
				t.Fatalf("failed action spent steps: %d -> %d", before, p.Steps)
			}
		})
	}
}

func TestResolve_FailedActionLeavesStateUntouched(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassVampire
	a.Inventory = []Item{ItemKnife}
	a.Health = 5
	// Target in a different location: out of range.
	g.Players["b"].Location = Central()

	_, err := Resolve(g, "a", Action{Kind: ActionKnife, Target: "b"}, testRand())
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want out-of-range, got %v", err)
	}
	if a.Health != 5 {
		t.Fatalf("failed knife still healed the vampire: %d", a.Health)
	}
	if a.Steps != 5 {
		t.Fatalf("failed knife spent steps: %d", a.Steps)
	}
}

func TestKnife_DamageAgainstShirt(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassVampire
	a.Inventory = []Item{ItemKnife}
	b.Class = ClassMage
	b.Inventory = []Item{ItemShirt}
	b.Location = a.Location

	res := mustResolve(t, g, "a", Action{Kind: ActionKnife, Target: "b"})
	// 1 knife - 1 shirt + 1 = 1.
	if res.Damage != 1 {
		t.Fatalf("want damage 1, got %d", res.Damage)
	}
	if b.Health != 9 {
		t.Fatalf("want target at 9 health, got %d", b.Health)
	}
}

func TestKnife_DamageFloorsAtZero(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassMage
	a.Inventory = []Item{ItemKnife}
	b.Class = ClassMage
	b.Inventory = []Item{ItemShirt, ItemShirt, ItemShirt}
	b.Location = a.Location

	res := mustResolve(t, g, "a", Action{Kind: ActionKnife, Target: "b"})
	if res.Damage != 0 {
		t.Fatalf("want damage floored to 0, got %d", res.Damage)
	}
	if b.Health != 10 {
		t.Fatalf("target lost health on a parried knife: %d", b.Health)
	}
}

func TestKnife_ShirtsIgnoredForMartialClasses(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassMage
	a.Inventory = []Item{ItemKnife, ItemKnife}
	b.Class = ClassBoxer
	b.Inventory = []Item{ItemShirt, ItemShirt}
	b.Location = a.Location

	res := mustResolve(t, g, "a", Action{Kind: ActionKnife, Target: "b"})
	// Boxers cannot wear shirts: 2 knives - 0 + 1 = 3.
	if res.Damage != 3 {
		t.Fatalf("want damage 3, got %d", res.Damage)
	}
}

func TestKnife_VampireHealsWinOrMiss(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassVampire
	a.Inventory = []Item{ItemKnife}
	a.Health = 4
	b.Class = ClassMage
	b.Inventory = []Item{ItemShirt, ItemShirt} // parries to 0
	b.Location = a.Location

	res := mustResolve(t, g, "a", Action{Kind: ActionKnife, Target: "b"})
	if res.Damage != 0 {
		t.Fatalf("want a miss, got damage %d", res.Damage)
	}
	if a.Health != 5 {
		t.Fatalf("vampire did not heal on a miss: %d", a.Health)
	}
}

func TestKnife_ForbiddenClasses(t *testing.T) {
	for _, c := range []Class{ClassBoxer, ClassMonk} {
		g := playingState("a", "b")
		a := g.Players["a"]
		a.Class = c
		a.Inventory = []Item{ItemKnife}
		g.Players["b"].Location = a.Location

		_, err := Resolve(g, "a", Action{Kind: ActionKnife, Target: "b"}, testRand())
		if !errors.Is(err, ErrClassForbidden) {
			t.Fatalf("%s wielded a knife: %v", c, err)
		}
	}
}

func TestHorse_DamageAndKnockback(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassMage
	a.Inventory = []Item{ItemHorse}
	b.Class = ClassMage
	b.Inventory = []Item{ItemShirt}
	b.Location = a.Location // a's own city

	res := mustResolve(t, g, "a", Action{Kind: ActionHorse, Target: "b"})
	// 2 + 1 horse - 1 shirt + 1 = 3.
	if res.Damage != 3 {
		t.Fatalf("want damage 3, got %d", res.Damage)
	}
	if b.Location.Kind != LocCentral {
		t.Fatalf("trample did not knock the target to Central: %+v", b.Location)
	}
}

func TestHorse_CityOnly(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassMage
	a.Inventory = []Item{ItemHorse}
	a.Location = Central()
	b.Location = Central()

	_, err := Resolve(g, "a", Action{Kind: ActionHorse, Target: "b"}, testRand())
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("horse charged in Central: %v", err)
	}
}

func TestHorse_ForbiddenForAlienAndFatty(t *testing.T) {
	for _, c := range []Class{ClassAlien, ClassFatty, ClassBoxer, ClassMonk} {
		g := playingState("a", "b")
		a := g.Players["a"]
		a.Class = c
		a.Inventory = []Item{ItemHorse}
		g.Players["b"].Location = a.Location

		_, err := Resolve(g, "a", Action{Kind: ActionHorse, Target: "b"}, testRand())
		if !errors.Is(err, ErrClassForbidden) {
			t.Fatalf("%s rode a horse: %v", c, err)
		}
	}
}

func TestArrow_ConsumesArrowAndReachesAdjacent(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassArcher
	a.Inventory = []Item{ItemBow, ItemArrow}
	a.Location = Central()
	b.Class = ClassMage
	// b stands in their own city, one hop from Central.

	res := mustResolve(t, g, "a", Action{Kind: ActionArrow, Target: "b"})
	// 1 bow - 0 + 1 = 2.
	if res.Damage != 2 {
		t.Fatalf("want damage 2, got %d", res.Damage)
	}
	if a.HasItem(ItemArrow) {
		t.Fatalf("arrow not consumed")
	}
	if !a.HasItem(ItemBow) {
		t.Fatalf("bow should survive the shot")
	}

	// Second shot has no ammo.
	_, err := Resolve(g, "a", Action{Kind: ActionArrow, Target: "b"}, testRand())
	if !errors.Is(err, ErrMissingItem) {
		t.Fatalf("want missing-item for spent quiver, got %v", err)
	}
}

func TestArrow_CityToCityOutOfRange(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassArcher
	a.Inventory = []Item{ItemBow, ItemArrow}
	// a in own city, b in own city: two hops.

	_, err := Resolve(g, "a", Action{Kind: ActionArrow, Target: "b"}, testRand())
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("arrow crossed two hops: %v", err)
	}
}

func TestPotion_QueuesEffectAndCostsMagnitude(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassMage
	a.PurchaseRights = []Item{ItemPotion}
	loc := City("b")

	mustResolve(t, g, "a", Action{Kind: ActionPotion, Location: &loc, Value: 3})
	if a.Steps != 2 {
		t.Fatalf("potion of 3 should cost 3 steps, have %d left", a.Steps)
	}
	if len(g.DelayedEffects) != 1 {
		t.Fatalf("potion did not queue an effect")
	}
	e := g.DelayedEffects[0]
	if e.Kind != EffectPotion || e.Value != 3 || e.ResolveAtRound != g.Round+1 {
		t.Fatalf("bad potion effect: %+v", e)
	}
	// The potion right is consumable: still held for the next cast.
	if !a.HasRight(ItemPotion) {
		t.Fatalf("potion right vanished")
	}
}

func TestRocket_QueuesTrueDamageEffect(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassRocketeer
	a.Inventory = []Item{ItemRocketLauncher, ItemRocketAmmo}
	loc := City("b")

	res := mustResolve(t, g, "a", Action{Kind: ActionRocket, Location: &loc})
	if res.Damage != 2 {
		t.Fatalf("want 1+launchers=2, got %d", res.Damage)
	}
	if a.HasItem(ItemRocketAmmo) {
		t.Fatalf("rocket ammo not consumed")
	}
	if len(g.DelayedEffects) != 1 || g.DelayedEffects[0].ResolveAtRound != g.Round+1 {
		t.Fatalf("rocket not queued for the next round: %+v", g.DelayedEffects)
	}
}

func TestBomb_PlacementMergesCounters(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassBomber
	a.Inventory = []Item{ItemBomb, ItemBomb}

	mustResolve(t, g, "a", Action{Kind: ActionPlaceBomb})
	mustResolve(t, g, "a", Action{Kind: ActionPlaceBomb})

	if len(g.Bombs) != 1 {
		t.Fatalf("want one merged bomb entity, got %d", len(g.Bombs))
	}
	if g.Bombs[0].Count != 2 {
		t.Fatalf("want count 2, got %d", g.Bombs[0].Count)
	}
}

func TestDetonate_HitsEveryOwnedBombTrueDamage(t *testing.T) {
	g := playingState("a", "b", "c")
	a := g.Players["a"]
	a.Class = ClassBomber
	g.Bombs = []*Bomb{
		{OwnerID: "a", Location: City("b"), Count: 2},
		{OwnerID: "a", Location: City("c"), Count: 1},
	}
	g.Players["b"].Inventory = []Item{ItemShirt} // ignored: true damage
	g.Players["b"].Class = ClassMage

	res := mustResolve(t, g, "a", Action{Kind: ActionDetonate})
	if len(res.Victims) != 2 {
		t.Fatalf("want 2 victims, got %+v", res.Victims)
	}
	if g.Players["b"].Health != 8 {
		t.Fatalf("shirt blocked bomb damage: %d", g.Players["b"].Health)
	}
	if g.Players["c"].Health != 9 {
		t.Fatalf("want 9, got %d", g.Players["c"].Health)
	}
	if len(g.Bombs) != 0 {
		t.Fatalf("detonation left bombs behind")
	}
}

func TestDetonate_SelfDeathZeroesSteps(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassBomber
	a.Health = 1
	g.Bombs = []*Bomb{{OwnerID: "a", Location: a.Location, Count: 3}}

	res := mustResolve(t, g, "a", Action{Kind: ActionDetonate})
	if a.Alive {
		t.Fatalf("bomber survived their own blast at 1 health")
	}
	if a.Steps != 0 {
		t.Fatalf("dead bomber kept %d steps", a.Steps)
	}
	// Self-death creates no loot offer.
	if len(g.PendingLoots) != 0 {
		t.Fatalf("self-kill created a loot offer")
	}
	if !res.Victims[0].Killed {
		t.Fatalf("victim entry not marked killed: %+v", res.Victims)
	}
	// b remains the sole survivor and takes the game.
	if g.Phase != PhaseEnded || g.Players["b"].Rank != 1 {
		t.Fatalf("game did not end with b winning: phase=%s rank=%d", g.Phase, g.Players["b"].Rank)
	}
}

func TestDetonate_MutualDestructionCrownsBomber(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassBomber
	a.Health = 2
	b.Health = 2
	b.Location = a.Location
	g.Bombs = []*Bomb{{OwnerID: "a", Location: a.Location, Count: 5}}

	mustResolve(t, g, "a", Action{Kind: ActionDetonate})
	if a.Alive || b.Alive {
		t.Fatalf("someone survived a 5-bomb blast at 2 health")
	}
	if g.Phase != PhaseEnded {
		t.Fatalf("mutual destruction did not end the game")
	}
	if a.Rank != 1 {
		t.Fatalf("bomber should take the win, rank=%d", a.Rank)
	}
	if b.Rank == 1 {
		t.Fatalf("two rank-1 players after mutual destruction")
	}
}

func TestDetonate_MutualDestructionKeepsDeathOrder(t *testing.T) {
	g := playingState("a", "b", "c")
	a, b, c := g.Players["a"], g.Players["b"], g.Players["c"]
	a.Class = ClassBomber
	a.Health, b.Health, c.Health = 2, 2, 2
	b.Location = a.Location
	c.Location = a.Location
	g.Bombs = []*Bomb{{OwnerID: "a", Location: a.Location, Count: 5}}

	// Blast order follows turn order, so the bomber dies first and c last.
	mustResolve(t, g, "a", Action{Kind: ActionDetonate})
	if a.Alive || b.Alive || c.Alive {
		t.Fatalf("someone survived a 5-bomb blast at 2 health")
	}
	if a.Rank != 1 {
		t.Fatalf("bomber should take the win, rank=%d", a.Rank)
	}
	if c.Rank != 2 || b.Rank != 3 {
		t.Fatalf("death order inverted: b=%d c=%d", b.Rank, c.Rank)
	}
}

func TestPunch_TierDamageWithStacks(t *testing.T) {
	tests := []struct {
		item Item
		held int
		want int
	}{
		{ItemBronzeGlove, 1, 1},
		{ItemSilverGlove, 1, 2},
		{ItemGoldGlove, 1, 3},
		{ItemGoldGlove, 2, 4},
	}
	for _, tt := range tests {
		g := playingState("a", "b")
		a, b := g.Players["a"], g.Players["b"]
		a.Class = ClassBoxer
		for i := 0; i < tt.held; i++ {
			a.Inventory = append(a.Inventory, tt.item)
		}
		b.Class = ClassMage
		b.Inventory = []Item{ItemShirt} // true damage ignores it
		b.Location = a.Location

		res := mustResolve(t, g, "a", Action{Kind: ActionPunch, Target: "b", Item: tt.item})
		if res.Damage != tt.want {
			t.Fatalf("%s x%d: want %d, got %d", tt.item, tt.held, tt.want, res.Damage)
		}
	}
}

func TestKick_RelocatesAndSilverReaches(t *testing.T) {
	// Gold kick in Central sends the target home.
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassMonk
	a.Inventory = []Item{ItemGoldBelt}
	a.Location = Central()
	b.Location = Central()

	res := mustResolve(t, g, "a", Action{Kind: ActionKick, Target: "b", Item: ItemGoldBelt})
	if res.Damage != 2 {
		t.Fatalf("gold kick: want 2, got %d", res.Damage)
	}
	if !b.Location.Same(City("b")) {
		t.Fatalf("kick from Central should send target to their own city: %+v", b.Location)
	}

	// Silver belt may be declared from one hop out; the target in a
	// city is booted to Central.
	g = playingState("a", "b")
	a, b = g.Players["a"], g.Players["b"]
	a.Class = ClassMonk
	a.Inventory = []Item{ItemSilverBelt}
	a.Location = Central()

	res = mustResolve(t, g, "a", Action{Kind: ActionKick, Target: "b", Item: ItemSilverBelt})
	if res.Damage != 1 {
		t.Fatalf("silver kick: want 1, got %d", res.Damage)
	}
	if b.Location.Kind != LocCentral {
		t.Fatalf("kicked target should land in Central: %+v", b.Location)
	}

	// Bronze needs contact.
	g = playingState("a", "b")
	a = g.Players["a"]
	a.Class = ClassMonk
	a.Inventory = []Item{ItemBronzeBelt}
	a.Location = Central()

	_, err := Resolve(g, "a", Action{Kind: ActionKick, Target: "b", Item: ItemBronzeBelt}, testRand())
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("bronze kick reached across a hop: %v", err)
	}
}

func TestTeleport_RequiresUFO(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassAlien
	loc := City("b")

	_, err := Resolve(g, "a", Action{Kind: ActionTeleport, Location: &loc}, testRand())
	if !errors.Is(err, ErrMissingItem) {
		t.Fatalf("teleport without a ufo: %v", err)
	}

	a.Inventory = []Item{ItemUFO}
	mustResolve(t, g, "a", Action{Kind: ActionTeleport, Location: &loc})
	if !a.Location.Same(loc) {
		t.Fatalf("teleport did not move the alien: %+v", a.Location)
	}
}

func TestHug_CoMovesBothPlayers(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassFatty
	b.Location = a.Location
	central := Central()

	mustResolve(t, g, "a", Action{Kind: ActionHug, Target: "b", Location: &central})
	if a.Location.Kind != LocCentral || b.Location.Kind != LocCentral {
		t.Fatalf("hug did not co-move: a=%+v b=%+v", a.Location, b.Location)
	}
	if a.Steps != 3 {
		t.Fatalf("hug should cost 2 steps, have %d", a.Steps)
	}
}

func TestRob_NamedAndNeverFat(t *testing.T) {
	g := playingState("a", "b")
	a, b := g.Players["a"], g.Players["b"]
	b.Class = ClassFatty
	b.Inventory = []Item{ItemFat, ItemKnife}
	b.PurchaseRights = []Item{ItemKnife}
	b.Location = a.Location

	res := mustResolve(t, g, "a", Action{Kind: ActionRob, Target: "b", Item: ItemKnife})
	if res.Item != ItemKnife {
		t.Fatalf("want the knife, got %q", res.Item)
	}
	if !a.HasItem(ItemKnife) || b.HasItem(ItemKnife) {
		t.Fatalf("knife did not change hands")
	}
	if !b.HasItem(ItemFat) {
		t.Fatalf("fat left its owner")
	}
	if !b.HasRight(ItemKnife) {
		t.Fatalf("rob touched purchase rights")
	}

	// Only fat remains: nothing left to steal.
	_, err := Resolve(g, "a", Action{Kind: ActionRob, Target: "b"}, testRand())
	if !errors.Is(err, ErrNothingToRob) {
		t.Fatalf("robbed the unrobbable: %v", err)
	}
}

func TestRob_RandomPickSkipsFat(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		g := playingState("a", "b")
		b := g.Players["b"]
		b.Class = ClassFatty
		b.Inventory = []Item{ItemFat, ItemShirt}
		b.Location = g.Players["a"].Location

		res, err := Resolve(g, "a", Action{Kind: ActionRob, Target: "b"}, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if res.Item == ItemFat {
			t.Fatalf("seed %d: random rob took the fat", seed)
		}
	}
}

func TestPurchase_OwnCityAndRightConsumption(t *testing.T) {
	g := playingState("a", "b")
	a := g.Players["a"]
	a.Class = ClassArcher
	a.PurchaseRights = []Item{ItemBow, ItemArrow}

	// Bow: 2 steps, right consumed.
	mustResolve(t, g, "a", Action{Kind: ActionPurchase, Right: ItemBow})
	if a.Steps != 3 {
		t.Fatalf("bow should cost 2 steps, have %d", a.Steps)
	}
	if a.HasRight(ItemBow) {
		t.Fatalf("equipment right not consumed")
	}
	// Arrow: 1 step, consumable right survives.
	mustResolve(t, g, "a", Action{Kind: ActionPurchase, Right: ItemArrow})
	mustResolve(t, g, "a", Action{Kind: ActionPurchase, Right: ItemArrow})
	if a.CountItem(ItemArrow) != 2 {
		t.Fatalf("want 2 arrows, got %d", a.CountItem(ItemArrow))
	}
	if !a.HasRight(ItemArrow) {
		t.Fatalf("consumable right vanished")
	}

	// Away from home there is no shop.
	a.Location = Central()
	_, err := Resolve(g, "a", Action{Kind: ActionPurchase, Right: ItemArrow}, testRand())
	if !errors.Is(err, ErrNotYourCity) {
		t.Fatalf("bought outside own city: %v", err)
	}

	// No right, no sale.
	a.Location = City("a")
	a.Steps = 5
	_, err = Resolve(g, "a", Action{Kind: ActionPurchase, Right: ItemUFO}, testRand())
	if !errors.Is(err, ErrMissingRight) {
		t.Fatalf("bought without the right: %v", err)
	}

	// The potion is not in the shop at all.
	_, err = Resolve(g, "a", Action{Kind: ActionPurchase, Right: ItemPotion}, testRand())
	if !errors.Is(err, ErrNotPurchasable) {
		t.Fatalf("bought a potion directly: %v", err)
	}
}

func TestClaimLoot_ConsumedExactlyOnce(t *testing.T) {
	g := playingState("a", "b", "c")
	g.PendingLoots = []*PendingLoot{{
		ID: "l1", KillerID: "a", VictimID: "b", VictimName: "name-b",
		Items: []Item{ItemKnife, ItemShirt},
	}}
	// Free action: it is c's turn, a claims anyway.
	g.CurrentPlayerID = "c"

	before := g.Players["a"].Steps
	res := mustResolve(t, g, "a", Action{Kind: ActionClaimLoot, LootID: "l1", Item: ItemKnife})
	if !res.Success || res.Item != ItemKnife {
		t.Fatalf("bad claim result: %+v", res)
	}
	if g.Players["a"].Steps != before {
		t.Fatalf("free action charged steps")
	}
	if !g.Players["a"].HasItem(ItemKnife) {
		t.Fatalf("claimed item not transferred")
	}
	if len(g.PendingLoots) != 0 {
		t.Fatalf("offer not consumed")
	}

	// Second claim finds nothing.
	_, err := Resolve(g, "a", Action{Kind: ActionClaimLoot, LootID: "l1", Item: ItemShirt}, testRand())
	if !errors.Is(err, ErrNoPendingLoot) {
		t.Fatalf("offer consumed twice: %v", err)
	}
}

func TestClaimLoot_DeclineConsumes(t *testing.T) {
	g := playingState("a", "b")
	g.PendingLoots = []*PendingLoot{{
		ID: "l1", KillerID: "a", VictimID: "b", VictimName: "name-b",
		Items: []Item{ItemKnife},
	}}

	res := mustResolve(t, g, "a", Action{Kind: ActionClaimLoot, Decline: true})
	if res.Success {
		t.Fatalf("decline marked successful claim")
	}
	if len(g.PendingLoots) != 0 {
		t.Fatalf("declined offer not consumed")
	}
	if g.Players["a"].HasItem(ItemKnife) {
		t.Fatalf("decline still transferred the item")
	}
}

func TestClaimLoot_UnlistedItemKeepsOffer(t *testing.T) {
	g := playingState("a", "b")
	g.PendingLoots = []*PendingLoot{{
		ID: "l1", KillerID: "a", VictimID: "b", VictimName: "name-b",
		Items: []Item{ItemKnife},
	}}

	_, err := Resolve(g, "a", Action{Kind: ActionClaimLoot, Item: ItemUFO}, testRand())
	if !errors.Is(err, ErrMissingItem) {
		t.Fatalf("claimed an unlisted item: %v", err)
	}
	if len(g.PendingLoots) != 1 {
		t.Fatalf("failed claim consumed the offer")
	}
}

func TestAlienWarp_ClearsObligation(t *testing.T) {
	g := playingState("a", "b")
	g.PendingTeleports = []string{"a", "b"}
	g.CurrentPlayerID = ""
	loc := City("b")

	mustResolve(t, g, "a", Action{Kind: ActionAlienWarp, Location: &loc})
	if !g.Players["a"].Location.Same(loc) {
		t.Fatalf("warp did not move the player")
	}
	if len(g.PendingTeleports) != 1 || g.PendingTeleports[0] != "b" {
		t.Fatalf("obligation not cleared: %+v", g.PendingTeleports)
	}

	// Nil location is an explicit stay-put; the obligation still clears.
	was := g.Players["b"].Location
	mustResolve(t, g, "b", Action{Kind: ActionAlienWarp})
	if !g.Players["b"].Location.Same(was) {
		t.Fatalf("stay-put moved the player")
	}
	if len(g.PendingTeleports) != 0 {
		t.Fatalf("stay-put left the obligation: %+v", g.PendingTeleports)
	}

	// No obligation, no warp.
	_, err := Resolve(g, "a", Action{Kind: ActionAlienWarp}, testRand())
	if !errors.Is(err, ErrNoObligation) {
		t.Fatalf("warped without an obligation: %v", err)
	}
}

func TestKnife_KillCreatesLootOffer(t *testing.T) {
	g := playingState("a", "b", "c")
	a, b := g.Players["a"], g.Players["b"]
	a.Class = ClassMage
	a.Inventory = []Item{ItemKnife, ItemKnife, ItemKnife}
	b.Class = ClassFatty
	b.Inventory = []Item{ItemFat, ItemUFO}
	b.Health = 2
	b.Location = a.Location

	res := mustResolve(t, g, "a", Action{Kind: ActionKnife, Target: "b"})
	if !res.Killed {
		t.Fatalf("4 damage did not kill at 2 health")
	}
	if b.Health != 0 || b.Alive {
		t.Fatalf("victim not dead: health=%d alive=%v", b.Health, b.Alive)
	}
	if b.Rank != 3 {
		t.Fatalf("first death of three should rank 3, got %d", b.Rank)
	}
	if len(b.Inventory) != 0 || len(b.PurchaseRights) != 0 {
		t.Fatalf("death left the victim holding things")
	}
	if len(g.PendingLoots) != 1 {
		t.Fatalf("no loot offer created")
	}
	loot := g.PendingLoots[0]
	if loot.KillerID != "a" || len(loot.Items) != 1 || loot.Items[0] != ItemUFO {
		t.Fatalf("loot should name the ufo only (never fat): %+v", loot)
	}
}
