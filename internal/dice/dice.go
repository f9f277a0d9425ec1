package dice

import (
	"fmt"
	"strings"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// RollResult is the outcome of rolling a group of identical dice
type RollResult struct {
	Total    int   `json:"total"`
	RawTotal int   `json:"rawTotal"`
	Highest  int   `json:"highest"`
	Lowest   int   `json:"lowest"`
	Rolls    []int `json:"rolls"`
	Bonus    int   `json:"bonus"`
	Count    int   `json:"count"`
	Sides    int   `json:"sides"`
}

// NewRollResult totals the given faces
func NewRollResult(sides, bonus int, rolls []int) *RollResult {
	result := &RollResult{
		Rolls: rolls,
		Bonus: bonus,
		Count: len(rolls),
		Sides: sides,
	}
	for i, roll := range rolls {
		result.RawTotal += roll
		if i == 0 || roll > result.Highest {
			result.Highest = roll
		}
		if i == 0 || roll < result.Lowest {
			result.Lowest = roll
		}
	}
	result.Total = result.RawTotal + bonus
	return result
}

// validate rejects dice that cannot be rolled
func validate(count, sides int) error {
	if count < 0 {
		return dherr.InvalidArgumentf("invalid dice count %d", count)
	}
	if sides < 1 {
		return dherr.InvalidArgumentf("invalid dice size %d", sides)
	}
	return nil
}

func (r *RollResult) String() string {
	compact := strings.ReplaceAll(fmt.Sprintf("%v", r.Rolls), " ", ",")
	if r.Bonus == 0 {
		return fmt.Sprintf("%dd%d %s = %d", r.Count, r.Sides, compact, r.Total)
	}
	return fmt.Sprintf("%dd%d%+d %s = %d", r.Count, r.Sides, r.Bonus, compact, r.Total)
}
