package patch_test

import (
	"testing"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_SetsNestedFields(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")

	err := patch.Apply(actor, patch.New().
		Set("resources.hope.value", 5).
		Set("token.img", "beasts/wolf.webp"))
	require.NoError(t, err)

	assert.Equal(t, 5, actor.Resources[entities.ResourceHope].Value)
	assert.Equal(t, 6, actor.Resources[entities.ResourceHope].Max)
	assert.Equal(t, "beasts/wolf.webp", actor.Token.Img)
	assert.Equal(t, "Marlowe", actor.Name)
}

func TestApply_DeletionMarkerRemovesMapKey(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Items["claws"] = &entities.Item{UUID: "Actor.a1.Item.claws", Name: "Claws"}
	actor.Items["bite"] = &entities.Item{UUID: "Actor.a1.Item.bite", Name: "Bite"}

	err := patch.Apply(actor, patch.New().Remove("items", "claws"))
	require.NoError(t, err)

	assert.NotContains(t, actor.Items, "claws")
	assert.Contains(t, actor.Items, "bite")
}

func TestApply_DeletionOfMissingBranchIsNoop(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Effects = nil

	err := patch.Apply(actor, patch.New().Remove("effects", "gone"))
	require.NoError(t, err)
	assert.Empty(t, actor.Effects)
}

func TestApply_PullRemovesArrayElements(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")
	actor.Owners = []string{"p1", "p2", "p3"}

	err := patch.Apply(actor, patch.New().PullFrom("owners", "p2", "p3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, actor.Owners)
}

func TestApply_StructValuesAreNormalized(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")

	err := patch.Apply(actor, patch.New().Set("items.torch", &entities.Item{
		UUID:     "Actor.a1.Item.torch",
		Name:     "Torch",
		Quantity: 3,
	}))
	require.NoError(t, err)

	require.Contains(t, actor.Items, "torch")
	assert.Equal(t, 3, actor.Items["torch"].Quantity)
}

func TestApply_RejectsWalkThroughScalar(t *testing.T) {
	actor := entities.NewCharacter("Actor.a1", "Marlowe")

	err := patch.Apply(actor, patch.New().Set("name.first", "x"))
	assert.Error(t, err)
}

func TestApply_RequiresPointer(t *testing.T) {
	err := patch.Apply(entities.Actor{}, patch.New())
	assert.Error(t, err)
}
