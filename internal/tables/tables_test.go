package tables_test

import (
	"context"
	"testing"

	mockdice "github.com/KirkDiggler/dh-automation/internal/dice/mock"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	repo "github.com/KirkDiggler/dh-automation/internal/repositories/tables"
	"github.com/KirkDiggler/dh-automation/internal/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, rows ...*entities.RollTable) (*tables.Drawer, *mockdice.ManualMockRoller) {
	t.Helper()
	store := repo.NewInMemoryRepository()
	for _, r := range rows {
		require.NoError(t, store.Put(context.Background(), r))
	}
	roller := mockdice.NewManualMockRoller()
	return tables.NewDrawer(&tables.DrawerConfig{Tables: store, Roller: roller}), roller
}

func TestDraw_FollowsNestedTables(t *testing.T) {
	drawer, roller := setup(t,
		&entities.RollTable{ID: "loot", Formula: "1d6", Results: []entities.TableResult{
			{Low: 1, High: 3, Text: "Coins"},
			{Low: 4, High: 6, Text: "A trinket:", TableID: "trinkets"},
		}},
		&entities.RollTable{ID: "trinkets", Formula: "1d2", Results: []entities.TableResult{
			{Low: 1, High: 1, Text: "Bone whistle"},
			{Low: 2, High: 2, Text: "Glass eye"},
		}},
	)
	roller.SetRolls([]int{5, 2})

	draw, err := drawer.Draw(context.Background(), "loot")
	require.NoError(t, err)
	assert.Equal(t, []string{"A trinket:", "Glass eye"}, draw.Texts())
	assert.Equal(t, 1, draw.Results[1].Depth)
}

func TestDraw_SelfReferenceHitsDepthCap(t *testing.T) {
	drawer, roller := setup(t,
		&entities.RollTable{ID: "loop", Formula: "1", Results: []entities.TableResult{
			{Low: 1, High: 1, Text: "again", TableID: "loop"},
		}},
	)

	_, err := drawer.Draw(context.Background(), "loop")
	require.Error(t, err)
	assert.True(t, dherr.IsDepthExceeded(err))
	assert.Equal(t, 0, roller.Remaining())
}

func TestDraw_MissingTable(t *testing.T) {
	drawer, _ := setup(t)
	_, err := drawer.Draw(context.Background(), "nope")
	assert.True(t, dherr.IsNotFound(err))
}

func TestDraw_NoMatchingRow(t *testing.T) {
	drawer, roller := setup(t,
		&entities.RollTable{ID: "sparse", Formula: "1d6", Results: []entities.TableResult{{Low: 1, High: 1, Text: "one"}}},
	)
	roller.SetRolls([]int{4})

	draw, err := drawer.Draw(context.Background(), "sparse")
	require.NoError(t, err)
	assert.Empty(t, draw.Results)
}
