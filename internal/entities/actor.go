package entities

import (
	"sort"
	"strings"
)

// ActorType represents the kind of actor
type ActorType string

const (
	ActorTypeCharacter   ActorType = "character"
	ActorTypeAdversary   ActorType = "adversary"
	ActorTypeCompanion   ActorType = "companion"
	ActorTypeEnvironment ActorType = "environment"
)

// Disposition is the token disposition used for friend/foe tests
type Disposition int

const (
	DispositionSecret   Disposition = -2
	DispositionHostile  Disposition = -1
	DispositionNeutral  Disposition = 0
	DispositionFriendly Disposition = 1
)

// Resource keys shared by characters and adversaries
const (
	ResourceHitPoints = "hitPoints"
	ResourceStress    = "stress"
	ResourceHope      = "hope"
	ResourceArmor     = "armor"
	ResourceFear      = "fear"
)

// PlaceholderImg is the default art compendium actors ship with
const PlaceholderImg = "icons/svg/mystery-man.svg"

// ResourceValue is the persisted value/max pair of an actor resource.
// Reversed resources count upward toward Max (hit points and stress are marked, not lost).
type ResourceValue struct {
	Value      int  `json:"value"`
	Max        int  `json:"max"`
	IsReversed bool `json:"isReversed,omitempty"`
}

// Thresholds map incoming damage to marked hit points
type Thresholds struct {
	Major  int `json:"major"`
	Severe int `json:"severe"`
}

// Token is the actor's on-scene presentation, snapshotted by beastform
type Token struct {
	Img    string  `json:"img"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Actor is a character, adversary, companion or environment
type Actor struct {
	UUID        string                    `json:"uuid"`
	Type        ActorType                 `json:"type"`
	Name        string                    `json:"name"`
	Img         string                    `json:"img"`
	Compendium  bool                      `json:"compendium,omitempty"`
	Disposition Disposition               `json:"disposition"`
	Owners      []string                  `json:"owners,omitempty"`
	Level       int                       `json:"level"`
	Proficiency int                       `json:"proficiency"`
	Evasion     int                       `json:"evasion"`
	Difficulty  int                       `json:"difficulty"`
	Thresholds  Thresholds                `json:"thresholds"`
	Traits      map[string]int            `json:"traits,omitempty"`
	Resources   map[string]*ResourceValue `json:"resources"`
	Items       map[string]*Item          `json:"items,omitempty"`
	Effects     map[string]*Effect        `json:"effects,omitempty"`
	Token       Token                     `json:"token"`
}

// NewCharacter returns a character with the default resource layout
func NewCharacter(uuid, name string) *Actor {
	return &Actor{
		UUID:        uuid,
		Type:        ActorTypeCharacter,
		Name:        name,
		Img:         PlaceholderImg,
		Disposition: DispositionFriendly,
		Level:       1,
		Proficiency: 1,
		Traits:      map[string]int{},
		Resources: map[string]*ResourceValue{
			ResourceHitPoints: {Value: 0, Max: 6, IsReversed: true},
			ResourceStress:    {Value: 0, Max: 6, IsReversed: true},
			ResourceHope:      {Value: 2, Max: 6},
			ResourceArmor:     {Value: 0, Max: 0, IsReversed: true},
		},
		Items:   map[string]*Item{},
		Effects: map[string]*Effect{},
		Token:   Token{Img: PlaceholderImg, Width: 1, Height: 1},
	}
}

// IsOwnedBy reports whether the participant may update this actor directly
func (a *Actor) IsOwnedBy(participantID string) bool {
	for _, owner := range a.Owners {
		if owner == participantID {
			return true
		}
	}
	return false
}

// Item returns the embedded item by id or uuid
func (a *Actor) Item(ref string) (*Item, bool) {
	if item, ok := a.Items[ref]; ok {
		return item, true
	}
	for _, item := range a.Items {
		if item.UUID == ref {
			return item, true
		}
	}
	return nil, false
}

// Effect returns the embedded effect by id or uuid
func (a *Actor) Effect(ref string) (*Effect, bool) {
	if effect, ok := a.Effects[ref]; ok {
		return effect, true
	}
	for _, effect := range a.Effects {
		if effect.UUID == ref {
			return effect, true
		}
	}
	return nil, false
}

// ItemIDs returns item ids in a stable order
func (a *Actor) ItemIDs() []string {
	ids := make([]string, 0, len(a.Items))
	for id := range a.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EffectIDs returns effect ids in a stable order
func (a *Actor) EffectIDs() []string {
	ids := make([]string, 0, len(a.Effects))
	for id := range a.Effects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RollData flattens the actor's stats into formula variables.
// Traits are exposed both bare (@agility) and dotted (@traits.agility).
func (a *Actor) RollData() map[string]float64 {
	data := map[string]float64{
		"level":       float64(a.Level),
		"proficiency": float64(a.Proficiency),
		"prof":        float64(a.Proficiency),
		"evasion":     float64(a.Evasion),
		"difficulty":  float64(a.Difficulty),
		"major":       float64(a.Thresholds.Major),
		"severe":      float64(a.Thresholds.Severe),
	}
	for name, value := range a.Traits {
		data[name] = float64(value)
		data["traits."+name] = float64(value)
	}
	for key, res := range a.Resources {
		if res == nil {
			continue
		}
		data[key] = float64(res.Value)
		data["resources."+key+".value"] = float64(res.Value)
		data["resources."+key+".max"] = float64(res.Max)
	}
	return data
}

// Normalize clamps persisted values the way the document layer validates them
func (a *Actor) Normalize() {
	for _, res := range a.Resources {
		if res == nil {
			continue
		}
		if res.Max < 0 {
			res.Max = 0
		}
		res.Value = clamp(res.Value, 0, res.Max)
	}
	for _, item := range a.Items {
		item.Normalize()
	}
}

// SceneScoped reports whether a document uuid lives under the given scene uuid
func SceneScoped(docUUID, sceneUUID string) bool {
	return sceneUUID != "" && strings.HasPrefix(docUUID, sceneUUID+".")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
