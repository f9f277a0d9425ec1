package entities

import (
	"encoding/json"
	"time"
)

// DefaultFearMax is the size of the GM fear pool
const DefaultFearMax = 12

// CountdownType separates encounter and narrative countdowns
type CountdownType string

const (
	CountdownEncounter CountdownType = "encounter"
	CountdownNarrative CountdownType = "narrative"
)

// Progress is a countdown's current/max pair
type Progress struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Countdown is a campaign-global tracker ticking toward zero
type Countdown struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Type             CountdownType `json:"type"`
	Progress         Progress      `json:"progress"`
	DefaultOwnership int           `json:"defaultOwnership"`
}

// Pool is a shared value/max pair such as fear
type Pool struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// Automation toggles campaign-level rule automation
type Automation struct {
	Triggers bool `json:"triggers"`
	HopeFear bool `json:"hopeFear"`
}

// Campaign is the world-level state shared by every participant
type Campaign struct {
	ID         string                `json:"id"`
	Fear       Pool                  `json:"fear"`
	Countdowns map[string]*Countdown `json:"countdowns,omitempty"`
	Automation Automation            `json:"automation"`
}

// NewCampaign returns a campaign with an empty fear pool and automation on
func NewCampaign(id string) *Campaign {
	return &Campaign{
		ID:         id,
		Fear:       Pool{Value: 0, Max: DefaultFearMax},
		Countdowns: map[string]*Countdown{},
		Automation: Automation{Triggers: true, HopeFear: true},
	}
}

// Normalize clamps the fear pool and countdown progress
func (c *Campaign) Normalize() {
	c.Fear.Value = clamp(c.Fear.Value, 0, c.Fear.Max)
	for _, cd := range c.Countdowns {
		cd.Progress.Current = clamp(cd.Progress.Current, 0, cd.Progress.Max)
	}
}

// Message is a persisted workflow config that later stages can be re-run from
type Message struct {
	ID        string          `json:"id"`
	ActorUUID string          `json:"actorUuid"`
	ItemUUID  string          `json:"itemUuid"`
	ActionID  string          `json:"actionId"`
	AuthorID  string          `json:"authorId"`
	Config    json.RawMessage `json:"config"`
	CreatedAt time.Time       `json:"createdAt"`
}
