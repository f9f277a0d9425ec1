package dice_test

import (
	"testing"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/dice/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestEvaluateDuality(t *testing.T) {
	tests := []struct {
		name        string
		hope, fear  int
		modifier    int
		difficulty  *int
		wantOutcome dice.Outcome
		wantMeets   bool
	}{
		{name: "matching dice crit", hope: 4, fear: 4, difficulty: intPtr(30), wantOutcome: dice.OutcomeCriticalSuccess, wantMeets: true},
		{name: "no difficulty hope", hope: 9, fear: 3, wantOutcome: dice.OutcomeRollWithHope},
		{name: "no difficulty fear", hope: 3, fear: 9, wantOutcome: dice.OutcomeRollWithFear},
		{name: "success with hope", hope: 8, fear: 5, modifier: 2, difficulty: intPtr(15), wantOutcome: dice.OutcomeSuccessWithHope, wantMeets: true},
		{name: "success with fear", hope: 5, fear: 8, modifier: 2, difficulty: intPtr(15), wantOutcome: dice.OutcomeSuccessWithFear, wantMeets: true},
		{name: "failure with hope", hope: 6, fear: 2, difficulty: intPtr(15), wantOutcome: dice.OutcomeFailureWithHope},
		{name: "failure with fear", hope: 2, fear: 6, difficulty: intPtr(15), wantOutcome: dice.OutcomeFailureWithFear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := dice.EvaluateDuality(tt.hope, tt.fear, tt.modifier, tt.difficulty)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			assert.Equal(t, tt.wantMeets, result.MeetsDifficulty)
			assert.Equal(t, tt.hope+tt.fear+tt.modifier, result.Total)
		})
	}
}

func TestEvaluateDuality_RejectsBadFaces(t *testing.T) {
	_, err := dice.EvaluateDuality(0, 5, 0, nil)
	assert.Error(t, err)
	_, err = dice.EvaluateDuality(5, 13, 0, nil)
	assert.Error(t, err)
	_, err = dice.EvaluateDuality(5, 6, 0, intPtr(-1))
	assert.Error(t, err)
}

func TestRollDuality_Advantage(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{7, 5, 4})

	result, err := dice.RollDuality(roller, dice.DualityRequest{Modifier: 1, Difficulty: intPtr(16), Advantage: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, result.AdvantageDie)
	assert.Equal(t, 17, result.Total)
	assert.Equal(t, dice.OutcomeSuccessWithHope, result.Outcome)
	assert.True(t, result.WithHope())
	assert.Equal(t, 0, roller.Remaining())
}

func TestRollDuality_Disadvantage(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{7, 5, 4})

	result, err := dice.RollDuality(roller, dice.DualityRequest{Difficulty: intPtr(10), Advantage: -1})
	require.NoError(t, err)
	assert.Equal(t, -4, result.AdvantageDie)
	assert.Equal(t, 8, result.Total)
	assert.False(t, result.Succeeded())
}

func TestRollFear(t *testing.T) {
	roller := mockdice.NewManualMockRoller()
	roller.SetRolls([]int{20, 9})

	crit, err := dice.RollFear(roller, 0, intPtr(30))
	require.NoError(t, err)
	assert.True(t, crit.IsCrit)
	assert.True(t, crit.Succeeded())

	miss, err := dice.RollFear(roller, 2, intPtr(12))
	require.NoError(t, err)
	assert.Equal(t, 11, miss.Total)
	assert.False(t, miss.Succeeded())
}
