package entities

// ActionType is informational; stages key off the populated fields
type ActionType string

const (
	ActionTypeAttack    ActionType = "attack"
	ActionTypeDamage    ActionType = "damage"
	ActionTypeHealing   ActionType = "healing"
	ActionTypeEffect    ActionType = "effect"
	ActionTypeSummon    ActionType = "summon"
	ActionTypeBeastform ActionType = "beastform"
	ActionTypeCountdown ActionType = "countdown"
	ActionTypeMacro     ActionType = "macro"
)

// RollType selects how the roll stage resolves
type RollType string

const (
	RollTypeDuality RollType = "duality"
	RollTypeFear    RollType = "fear"
	RollTypeDiceSet RollType = "diceSet"
)

// TargetType is the friend/foe filter applied to candidate targets
type TargetType string

const (
	TargetSelf     TargetType = "self"
	TargetFriendly TargetType = "friendly"
	TargetHostile  TargetType = "hostile"
	TargetAny      TargetType = "any"
)

// DamageMod is what a successful save does to incoming damage
type DamageMod string

const (
	DamageModNone DamageMod = "none"
	DamageModHalf DamageMod = "half"
)

// CostDef is an authored resource cost
type CostDef struct {
	Key              string `json:"key"`
	ItemUUID         string `json:"itemUuid,omitempty"`
	Value            int    `json:"value"`
	Scalable         bool   `json:"scalable,omitempty"`
	Step             int    `json:"step,omitempty"`
	ConsumeOnSuccess bool   `json:"consumeOnSuccess,omitempty"`
}

// RollDef configures the roll stage
type RollDef struct {
	Type       RollType `json:"type"`
	Trait      string   `json:"trait,omitempty"`
	Formula    string   `json:"formula,omitempty"`
	Bonus      int      `json:"bonus,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
}

// TargetDef configures target resolution
type TargetDef struct {
	Type     TargetType `json:"type"`
	Amount   int        `json:"amount,omitempty"`
	Required bool       `json:"required,omitempty"`
}

// SaveDef configures reaction rolls made by targets
type SaveDef struct {
	Trait      string    `json:"trait"`
	Difficulty int       `json:"difficulty"`
	DamageMod  DamageMod `json:"damageMod,omitempty"`
}

// DamagePart is one damage or healing formula and the resource it lands on
type DamagePart struct {
	Formula string `json:"formula"`
	ApplyTo string `json:"applyTo"`
	Healing bool   `json:"healing,omitempty"`
}

// DamageDef configures the damage stage. Direct damage skips thresholds.
type DamageDef struct {
	Parts  []DamagePart `json:"parts"`
	Direct bool         `json:"direct,omitempty"`
}

// CountdownDef configures a countdown to create
type CountdownDef struct {
	Name             string        `json:"name"`
	Type             CountdownType `json:"type"`
	Formula          string        `json:"formula"`
	DefaultOwnership int           `json:"defaultOwnership,omitempty"`
}

// SummonDef names an actor to place and a count formula
type SummonDef struct {
	ActorUUID string `json:"actorUuid"`
	Count     string `json:"count"`
}

// BeastformOption is one selectable form
type BeastformOption struct {
	Name        string    `json:"name"`
	TokenImg    string    `json:"tokenImg"`
	TokenWidth  float64   `json:"tokenWidth"`
	TokenHeight float64   `json:"tokenHeight"`
	Features    []*Item   `json:"features,omitempty"`
	Effects     []*Effect `json:"effects,omitempty"`
}

// BeastformDef lists the forms the beastform stage offers
type BeastformDef struct {
	Options []BeastformOption `json:"options"`
}

// Action is an authored behavior on an item
type Action struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       ActionType     `json:"type"`
	Cost       []CostDef      `json:"cost,omitempty"`
	Roll       *RollDef       `json:"roll,omitempty"`
	Target     *TargetDef     `json:"target,omitempty"`
	Save       *SaveDef       `json:"save,omitempty"`
	Damage     *DamageDef     `json:"damage,omitempty"`
	Effects    []string       `json:"effects,omitempty"`
	Countdowns []CountdownDef `json:"countdowns,omitempty"`
	Summons    []SummonDef    `json:"summons,omitempty"`
	Beastform  *BeastformDef  `json:"beastform,omitempty"`
	Macro      string         `json:"macro,omitempty"`
}
