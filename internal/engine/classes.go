package engine

// Class is one of the nine playable classes. A game instance allows at
// most MaxPerClass holders of the same class.
type Class string

const (
	ClassMage      Class = "mage"
	ClassArcher    Class = "archer"
	ClassRocketeer Class = "rocketeer"
	ClassBomber    Class = "bomber"
	ClassBoxer     Class = "boxer"
	ClassMonk      Class = "monk"
	ClassAlien     Class = "alien"
	ClassFatty     Class = "fatty"
	ClassVampire   Class = "vampire"
)

const MaxPerClass = 2

// AllClasses returns every playable class, in rulebook order.
func AllClasses() []Class {
	return []Class{
		ClassMage, ClassArcher, ClassRocketeer, ClassBomber, ClassBoxer,
		ClassMonk, ClassAlien, ClassFatty, ClassVampire,
	}
}

// Item covers both inventory items and purchase rights; the two share
// names (holding the "bow" right unlocks buying the "bow" item).
type Item string

const (
	ItemShirt          Item = "shirt"
	ItemKnife          Item = "knife"
	ItemHorse          Item = "horse"
	ItemPotion         Item = "potion"
	ItemBow            Item = "bow"
	ItemArrow          Item = "arrow"
	ItemRocketLauncher Item = "rocket_launcher"
	ItemRocketAmmo     Item = "rocket_ammo"
	ItemBomb           Item = "bomb"
	ItemBronzeGlove    Item = "bronze_glove"
	ItemSilverGlove    Item = "silver_glove"
	ItemGoldGlove      Item = "gold_glove"
	ItemBronzeBelt     Item = "bronze_belt"
	ItemSilverBelt     Item = "silver_belt"
	ItemGoldBelt       Item = "gold_belt"
	ItemUFO            Item = "ufo"
	ItemFat            Item = "fat"
)

// capability describes what a class may use. Items a class cannot use
// may still be held (robbed, looted); they just do nothing.
type capability struct {
	Knife  bool // may attack with knives
	Horse  bool // may attack with horses
	Shirts bool // shirts in inventory count as defense
}

var capabilities = map[Class]capability{
	ClassMage:      {Knife: true, Horse: true, Shirts: true},
	ClassArcher:    {Knife: true, Horse: true, Shirts: true},
	ClassRocketeer: {Knife: true, Horse: true, Shirts: true},
	ClassBomber:    {Knife: true, Horse: true, Shirts: true},
	ClassBoxer:     {},
	ClassMonk:      {},
	ClassAlien:     {Knife: true, Shirts: true},
	ClassFatty:     {Knife: true, Shirts: true},
	ClassVampire:   {Knife: true, Horse: true, Shirts: true},
}

// InitialInventory returns the items a player starts with after picking
// a class. Boxers and monks start bare; the fatty's fat is bound to the
// class and never changes hands.
func InitialInventory(c Class) []Item {
	switch c {
	case ClassFatty:
		return []Item{ItemShirt, ItemFat}
	case ClassBoxer, ClassMonk:
		return nil
	default:
		return []Item{ItemShirt}
	}
}

// InitialRights returns the purchase rights granted on class pick.
func InitialRights(c Class) []Item {
	switch c {
	case ClassMage:
		return []Item{ItemKnife, ItemHorse, ItemPotion}
	case ClassArcher:
		return []Item{ItemKnife, ItemHorse, ItemBow, ItemArrow}
	case ClassRocketeer:
		return []Item{ItemKnife, ItemHorse, ItemRocketLauncher, ItemRocketAmmo}
	case ClassBomber:
		return []Item{ItemKnife, ItemHorse, ItemBomb}
	case ClassBoxer:
		return []Item{ItemBronzeGlove, ItemSilverGlove, ItemGoldGlove}
	case ClassMonk:
		return []Item{ItemBronzeBelt, ItemSilverBelt, ItemGoldBelt}
	case ClassAlien:
		return []Item{ItemKnife, ItemUFO}
	case ClassFatty:
		return []Item{ItemKnife}
	case ClassVampire:
		return []Item{ItemKnife, ItemHorse}
	default:
		return []Item{ItemKnife, ItemHorse}
	}
}

// consumableRights can be bought repeatedly; everything else purchasable
// is equipment and consumes its right on first purchase.
var consumableRights = map[Item]bool{
	ItemPotion:     true,
	ItemArrow:      true,
	ItemRocketAmmo: true,
	ItemBomb:       true,
}

// IsConsumableRight reports whether the right survives a purchase.
func IsConsumableRight(i Item) bool { return consumableRights[i] }

// purchaseCosts is the step cost of buying each item. The potion is
// absent on purpose: a mage "buys" a potion by casting it, paying its
// magnitude in steps (see the use_potion action).
var purchaseCosts = map[Item]int{
	ItemKnife:          1,
	ItemHorse:          1,
	ItemArrow:          1,
	ItemBomb:           1,
	ItemBronzeGlove:    1,
	ItemBronzeBelt:     1,
	ItemBow:            2,
	ItemRocketLauncher: 2,
	ItemRocketAmmo:     2,
	ItemUFO:            2,
	ItemSilverGlove:    2,
	ItemSilverBelt:     2,
	ItemGoldGlove:      3,
	ItemGoldBelt:       3,
}

// PurchaseCost returns the step cost of an item, or 0 and false when the
// item cannot be bought directly.
func PurchaseCost(i Item) (int, bool) {
	cost, ok := purchaseCosts[i]
	return cost, ok
}

// gloveDamage and beltDamage are the per-tier base values for punch and
// kick. Each extra copy of the named tier adds 1.
var gloveDamage = map[Item]int{
	ItemBronzeGlove: 1,
	ItemSilverGlove: 2,
	ItemGoldGlove:   3,
}

var beltDamage = map[Item]int{
	ItemBronzeBelt: 1,
	ItemSilverBelt: 1,
	ItemGoldBelt:   2,
}

func canUseKnife(c Class) bool { return capabilities[c].Knife }
func canUseHorse(c Class) bool { return capabilities[c].Horse }
func canWearShirt(c Class) bool { return capabilities[c].Shirts }
