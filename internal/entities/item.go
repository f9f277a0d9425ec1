package entities

// ItemType classifies embedded items
type ItemType string

const (
	ItemTypeFeature    ItemType = "feature"
	ItemTypeWeapon     ItemType = "weapon"
	ItemTypeConsumable ItemType = "consumable"
	ItemTypeLoot       ItemType = "loot"
	ItemTypeBeastform  ItemType = "beastform"
)

// Item-backed cost keys
const (
	ItemCostQuantity = "quantity"
	ItemCostUses     = "uses"
)

// Uses tracks limited uses. Value counts spent uses upward to Max.
type Uses struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// Item is an embedded item: a feature, weapon or consumable with actions
type Item struct {
	UUID     string             `json:"uuid"`
	Name     string             `json:"name"`
	Type     ItemType           `json:"type"`
	Img      string             `json:"img,omitempty"`
	Quantity int                `json:"quantity"`
	Uses     *Uses              `json:"uses,omitempty"`
	Actions  map[string]*Action `json:"actions,omitempty"`
	Effects  map[string]*Effect `json:"effects,omitempty"`
	Triggers []TriggerSpec      `json:"triggers,omitempty"`
}

// Action returns an action by id
func (i *Item) Action(id string) (*Action, bool) {
	action, ok := i.Actions[id]
	return action, ok
}

// Effect returns an effect template by id
func (i *Item) Effect(id string) (*Effect, bool) {
	effect, ok := i.Effects[id]
	return effect, ok
}

// Normalize clamps quantity and uses
func (i *Item) Normalize() {
	if i.Quantity < 0 {
		i.Quantity = 0
	}
	if i.Uses != nil {
		if i.Uses.Max < 0 {
			i.Uses.Max = 0
		}
		i.Uses.Value = clamp(i.Uses.Value, 0, i.Uses.Max)
	}
}
