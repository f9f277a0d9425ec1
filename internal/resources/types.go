package resources

import (
	"github.com/KirkDiggler/dh-automation/internal/entities"
)

// Resource is a spendable value as the ledger sees it: an actor stat, the
// shared fear pool, or an item's quantity or uses.
type Resource struct {
	Key        string `json:"key"`
	ItemUUID   string `json:"itemUuid,omitempty"`
	Value      int    `json:"value"`
	Max        int    `json:"max"`
	IsReversed bool   `json:"isReversed,omitempty"`
}

// Headroom is how far a reversed resource can still climb
func (r *Resource) Headroom() int {
	return r.Max - r.Value
}

// Cost is an authored cost plus the runtime scale and derived totals
type Cost struct {
	Key              string `json:"key"`
	ItemUUID         string `json:"itemUuid,omitempty"`
	Value            int    `json:"value"`
	Scalable         bool   `json:"scalable,omitempty"`
	Step             int    `json:"step,omitempty"`
	Scale            int    `json:"scale,omitempty"`
	ConsumeOnSuccess bool   `json:"consumeOnSuccess,omitempty"`
	Enabled          bool   `json:"enabled"`

	Total   int `json:"total"`
	Max     int `json:"max"`
	MaxStep int `json:"maxStep"`
}

// FromDefs converts authored cost definitions into enabled costs
func FromDefs(defs []entities.CostDef) []Cost {
	costs := make([]Cost, 0, len(defs))
	for _, def := range defs {
		costs = append(costs, Cost{
			Key:              def.Key,
			ItemUUID:         def.ItemUUID,
			Value:            def.Value,
			Scalable:         def.Scalable,
			Step:             def.Step,
			ConsumeOnSuccess: def.ConsumeOnSuccess,
			Enabled:          true,
		})
	}
	return costs
}

// ResourceKey is the lookup key for the resource a cost draws on
func ResourceKey(key, itemUUID string) string {
	if itemUUID == "" {
		return key
	}
	return itemUUID + ":" + key
}

func (c Cost) resourceKey() string {
	return ResourceKey(c.Key, c.ItemUUID)
}

func (c Cost) isFear() bool {
	return c.ItemUUID == "" && c.Key == entities.ResourceFear
}

// Update is a signed change to one resource, produced by costs, triggers
// or roll automation.
type Update struct {
	ActorUUID string `json:"actorUuid"`
	Key       string `json:"key"`
	ItemUUID  string `json:"itemUuid,omitempty"`
	Value     int    `json:"value"`
}

func (u Update) isFear() bool {
	return u.ItemUUID == "" && u.Key == entities.ResourceFear
}

// FearDelta is the relay payload for fear.update
type FearDelta struct {
	CampaignID string `json:"campaignId"`
	Delta      int    `json:"delta"`
}
