package workflow

import (
	"encoding/json"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/formula"
	"github.com/KirkDiggler/dh-automation/internal/resources"
)

// SaveResult is a target's recorded reaction roll
type SaveResult struct {
	Value   int  `json:"value"`
	Success bool `json:"success"`
}

// Target is a captured target. Only Saved changes after capture.
type Target struct {
	ID         string      `json:"id"`
	ActorUUID  string      `json:"actorUuid"`
	Name       string      `json:"name"`
	Img        string      `json:"img"`
	Difficulty int         `json:"difficulty"`
	Evasion    int         `json:"evasion"`
	Saved      *SaveResult `json:"saved,omitempty"`
}

// RollOptions are the player's choices from the roll dialog
type RollOptions struct {
	Advantage int `json:"advantage,omitempty"`
	Bonus     int `json:"bonus,omitempty"`
}

// RollOutcome is the resolved roll of a workflow
type RollOutcome struct {
	Type       entities.RollType   `json:"type"`
	Total      int                 `json:"total"`
	Difficulty *int                `json:"difficulty,omitempty"`
	Duality    *dice.DualityResult `json:"duality,omitempty"`
	Fear       *dice.FearResult    `json:"fear,omitempty"`
	Dice       *formula.Result     `json:"dice,omitempty"`
}

// Succeeded reports whether the roll met its difficulty
func (r *RollOutcome) Succeeded() bool {
	switch {
	case r == nil:
		return false
	case r.Duality != nil:
		return r.Duality.Succeeded()
	case r.Fear != nil:
		return r.Fear.Succeeded()
	case r.Difficulty != nil:
		return r.Total >= *r.Difficulty
	default:
		return false
	}
}

// DamageRoll is one rolled damage part
type DamageRoll struct {
	Formula string `json:"formula"`
	ApplyTo string `json:"applyTo"`
	Healing bool   `json:"healing,omitempty"`
	Total   int    `json:"total"`
}

// DamageOutcome is the rolled damage waiting to be applied
type DamageOutcome struct {
	Parts   []DamageRoll `json:"parts"`
	Direct  bool         `json:"direct,omitempty"`
	Applied []string     `json:"applied,omitempty"`
}

// SummonOutcome records what a summon entry produced
type SummonOutcome struct {
	ActorUUID string `json:"actorUuid"`
	Requested int    `json:"requested"`
	Placed    int    `json:"placed"`
}

// Dialog holds the dialog switches of a run
type Dialog struct {
	Configure bool `json:"configure"`
}

// Config is the mutable state stages build and consume. It is persisted on
// the run's message so deferred stages can be re-invoked later.
type Config struct {
	ActionType      entities.ActionType   `json:"actionType"`
	HasRoll         bool                  `json:"hasRoll"`
	RollOptions     RollOptions           `json:"rollOptions"`
	Roll            *RollOutcome          `json:"roll,omitempty"`
	HasTarget       bool                  `json:"hasTarget"`
	Targets         []Target              `json:"targets,omitempty"`
	Costs           []resources.Cost      `json:"costs,omitempty"`
	SuccessConsumed bool                  `json:"successConsumed"`
	HasSave         bool                  `json:"hasSave"`
	Save            *entities.SaveDef     `json:"save,omitempty"`
	HasDamage       bool                  `json:"hasDamage"`
	Damage          *DamageOutcome        `json:"damage,omitempty"`
	HasEffect       bool                  `json:"hasEffect"`
	Effects         []string              `json:"effects,omitempty"`
	Countdowns      []*entities.Countdown `json:"countdowns,omitempty"`
	Summons         []SummonOutcome       `json:"summons,omitempty"`
	Beastform       string                `json:"beastform,omitempty"`
	Macro           string                `json:"macro,omitempty"`
	Dialog          Dialog                `json:"dialog"`
	Data            map[string]any        `json:"data,omitempty"`
}

// Target returns the captured target with the given actor uuid
func (c *Config) Target(actorUUID string) (*Target, bool) {
	for i := range c.Targets {
		if c.Targets[i].ActorUUID == actorUUID {
			return &c.Targets[i], true
		}
	}
	return nil, false
}

func decodeConfig(raw json.RawMessage) (*Config, error) {
	cfg := &Config{}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toMap renders v as the plain map trigger and macro scripts read
func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
