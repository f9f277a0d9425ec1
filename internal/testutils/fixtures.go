package testutils

import (
	"github.com/KirkDiggler/dh-automation/internal/entities"
)

// CreateTestHero creates a level 1 character owned by the given participants
func CreateTestHero(uuid, name string, owners ...string) *entities.Actor {
	hero := entities.NewCharacter(uuid, name)
	hero.Owners = owners
	hero.Evasion = 10
	hero.Thresholds = entities.Thresholds{Major: 6, Severe: 12}
	hero.Traits = map[string]int{
		"agility":   1,
		"strength":  0,
		"finesse":   1,
		"instinct":  2,
		"presence":  0,
		"knowledge": -1,
	}
	return hero
}

// CreateTestAdversary creates a hostile adversary with hit points and stress
func CreateTestAdversary(uuid, name string, difficulty int) *entities.Actor {
	return &entities.Actor{
		UUID:        uuid,
		Type:        entities.ActorTypeAdversary,
		Name:        name,
		Img:         "adversaries/" + name + ".webp",
		Disposition: entities.DispositionHostile,
		Difficulty:  difficulty,
		Thresholds:  entities.Thresholds{Major: 5, Severe: 9},
		Resources: map[string]*entities.ResourceValue{
			entities.ResourceHitPoints: {Value: 0, Max: 6, IsReversed: true},
			entities.ResourceStress:    {Value: 0, Max: 3, IsReversed: true},
		},
		Items:   map[string]*entities.Item{},
		Effects: map[string]*entities.Effect{},
	}
}

// AddTestItem embeds an item carrying the given actions on actor
func AddTestItem(actor *entities.Actor, id, name string, actions ...*entities.Action) *entities.Item {
	item := &entities.Item{
		UUID:     actor.UUID + ".Item." + id,
		Name:     name,
		Type:     entities.ItemTypeFeature,
		Quantity: 1,
		Actions:  make(map[string]*entities.Action, len(actions)),
	}
	for _, action := range actions {
		item.Actions[action.ID] = action
	}
	if actor.Items == nil {
		actor.Items = map[string]*entities.Item{}
	}
	actor.Items[id] = item
	return item
}
