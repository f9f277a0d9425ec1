package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/dh-automation/internal/entities"
)

func TestActor_LookupByIDOrUUID(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Items["blade"] = &entities.Item{UUID: "Actor.a1.Item.blade", Name: "Blade"}
	actor.Effects["vuln"] = &entities.Effect{UUID: "Actor.a1.ActiveEffect.vuln", Name: "Vulnerable"}

	item, ok := actor.Item("blade")
	require.True(t, ok)
	assert.Equal(t, "Blade", item.Name)

	item, ok = actor.Item("Actor.a1.Item.blade")
	require.True(t, ok)
	assert.Equal(t, "Blade", item.Name)

	_, ok = actor.Item("missing")
	assert.False(t, ok)

	effect, ok := actor.Effect("Actor.a1.ActiveEffect.vuln")
	require.True(t, ok)
	assert.Equal(t, "Vulnerable", effect.Name)
}

func TestActor_RollData(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Proficiency = 2
	actor.Traits["agility"] = 1
	actor.Thresholds = entities.Thresholds{Major: 7, Severe: 14}

	data := actor.RollData()
	assert.Equal(t, 2.0, data["prof"])
	assert.Equal(t, 1.0, data["agility"])
	assert.Equal(t, 1.0, data["traits.agility"])
	assert.Equal(t, 2.0, data["hope"])
	assert.Equal(t, 6.0, data["resources.hope.max"])
	assert.Equal(t, 14.0, data["severe"])
}

func TestActor_NormalizeClamps(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Resources[entities.ResourceHope].Value = 9
	actor.Resources[entities.ResourceStress].Value = -2
	actor.Items["potion"] = &entities.Item{Quantity: -1, Uses: &entities.Uses{Value: 4, Max: 3}}

	actor.Normalize()

	assert.Equal(t, 6, actor.Resources[entities.ResourceHope].Value)
	assert.Equal(t, 0, actor.Resources[entities.ResourceStress].Value)
	assert.Equal(t, 0, actor.Items["potion"].Quantity)
	assert.Equal(t, 3, actor.Items["potion"].Uses.Value)
}

func TestActor_IDsAreSorted(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Items["b"] = &entities.Item{}
	actor.Items["a"] = &entities.Item{}
	assert.Equal(t, []string{"a", "b"}, actor.ItemIDs())
	assert.Empty(t, actor.EffectIDs())
}

func TestActor_IsOwnedBy(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Owners = []string{"player-1"}
	assert.True(t, actor.IsOwnedBy("player-1"))
	assert.False(t, actor.IsOwnedBy("player-2"))
}

func TestSceneScoped(t *testing.T) {
	assert.True(t, entities.SceneScoped("Scene.s1.Token.t1.Actor.wolf", "Scene.s1"))
	assert.False(t, entities.SceneScoped("Scene.s10.Token.t1", "Scene.s1"))
	assert.False(t, entities.SceneScoped("Actor.a1", ""))
}

func TestEffect_CloneIsDeep(t *testing.T) {
	orig := &entities.Effect{
		Name:     "Wolf",
		Changes:  []entities.Change{{Key: "evasion", Value: "+2"}},
		Triggers: []entities.TriggerSpec{{Trigger: "fearRoll", Command: "true"}},
		Beastform: &entities.BeastformState{
			Form:       "wolf",
			FeatureIDs: []string{"bite"},
		},
	}

	cp := orig.Clone()
	cp.Changes[0].Value = "+3"
	cp.Beastform.FeatureIDs[0] = "claw"

	assert.Equal(t, "+2", orig.Changes[0].Value)
	assert.Equal(t, "bite", orig.Beastform.FeatureIDs[0])
	assert.Nil(t, (*entities.Effect)(nil).Clone())
}

func TestRollTable_Result(t *testing.T) {
	table := &entities.RollTable{
		Results: []entities.TableResult{
			{Low: 1, High: 3, Text: "nothing"},
			{Low: 4, High: 6, TableID: "treasure"},
		},
	}

	row, ok := table.Result(5)
	require.True(t, ok)
	assert.Equal(t, "treasure", row.TableID)

	_, ok = table.Result(7)
	assert.False(t, ok)
}

func TestCampaign_Normalize(t *testing.T) {
	campaign := entities.NewCampaign("c1")
	campaign.Fear.Value = 20
	campaign.Countdowns["doom"] = &entities.Countdown{Progress: entities.Progress{Current: -1, Max: 4}}

	campaign.Normalize()

	assert.Equal(t, entities.DefaultFearMax, campaign.Fear.Value)
	assert.Equal(t, 0, campaign.Countdowns["doom"].Progress.Current)
}
