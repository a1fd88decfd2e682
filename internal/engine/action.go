package engine

import "errors"

var (
	ErrWrongPhase     = errors.New("wrong phase")
	ErrWrongTurn      = errors.New("not your turn")
	ErrNotAlive       = errors.New("player is not alive")
	ErrNoSteps        = errors.New("not enough steps")
	ErrUnknownPlayer  = errors.New("player not found")
	ErrUnknownAction  = errors.New("unknown action")
	ErrMissingTarget  = errors.New("target required")
	ErrBadTarget      = errors.New("target not found or not alive")
	ErrOutOfRange     = errors.New("target out of range")
	ErrMissingItem    = errors.New("required item not held")
	ErrMissingRight   = errors.New("purchase right not held")
	ErrNotYourCity    = errors.New("can only purchase in your own city")
	ErrClassForbidden = errors.New("class cannot perform this action")
	ErrBadLocation    = errors.New("target location required")
	ErrBadValue       = errors.New("value must be at least 1")
	ErrNothingToRob   = errors.New("target has nothing to steal")
	ErrNoBombs        = errors.New("no bombs to detonate")
	ErrNoPendingLoot  = errors.New("no pending loot for player")
	ErrNoObligation   = errors.New("no pending teleport for player")
	ErrRoomFull       = errors.New("room is full")
	ErrNotHost        = errors.New("only the host may do this")
	ErrTooFewPlayers  = errors.New("not enough players")
	ErrNotYourPick    = errors.New("not your turn to select a class")
	ErrBadClass       = errors.New("class not offered")
	ErrClassSaturated = errors.New("class limit reached")
)

type ActionKind string

const (
	ActionMove       ActionKind = "move"
	ActionPurchase   ActionKind = "purchase"
	ActionRob        ActionKind = "rob"
	ActionKnife      ActionKind = "attack_knife"
	ActionHorse      ActionKind = "attack_horse"
	ActionArrow      ActionKind = "shoot_arrow"
	ActionPotion     ActionKind = "use_potion"
	ActionRocket     ActionKind = "launch_rocket"
	ActionPlaceBomb  ActionKind = "place_bomb"
	ActionDetonate   ActionKind = "detonate_bomb"
	ActionPunch      ActionKind = "punch"
	ActionKick       ActionKind = "kick"
	ActionTeleport   ActionKind = "teleport"
	ActionHug        ActionKind = "hug"
	ActionClaimLoot  ActionKind = "claim_loot"
	ActionAlienWarp  ActionKind = "alien_teleport"
	actionRocketHit  ActionKind = "rocket_hit"
	actionPotionHeal ActionKind = "potion_heal"
)

// IsFree reports whether the action bypasses turn ownership and step
// cost: these complete a server-created obligation at a moment of the
// player's choosing.
func (k ActionKind) IsFree() bool {
	return k == ActionClaimLoot || k == ActionAlienWarp
}

// Action is one validated client intent. Which fields matter depends on
// the kind; unused fields are ignored.
type Action struct {
	Kind     ActionKind `json:"type"`
	Target   string     `json:"target,omitempty"`
	Location *Location  `json:"targetLocation,omitempty"`
	Item     Item       `json:"item,omitempty"`
	Right    Item       `json:"purchaseRight,omitempty"`
	Value    int        `json:"value,omitempty"`
	LootID   string     `json:"lootId,omitempty"`
	Decline  bool       `json:"decline,omitempty"`
}

// BlastVictim is one casualty entry in a detonation result.
type BlastVictim struct {
	Name   string `json:"name"`
	Damage int    `json:"damage"`
	Killed bool   `json:"killed"`
}

// ActionResult is the structured, wire-visible outcome of a resolved
// action. One struct with optional fields stands in for the per-kind
// union the clients consume.
type ActionResult struct {
	Kind       ActionKind    `json:"type"`
	Target     string        `json:"target,omitempty"`
	TargetName string        `json:"targetName,omitempty"`
	Location   *Location     `json:"location,omitempty"`
	Item       Item          `json:"item,omitempty"`
	Damage     int           `json:"damage,omitempty"`
	Healed     int           `json:"healed,omitempty"`
	Value      int           `json:"value,omitempty"`
	Killed     bool          `json:"killed,omitempty"`
	Success    bool          `json:"success,omitempty"`
	Victims    []BlastVictim `json:"victims,omitempty"`
}
