package dice

import (
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// Outcome is the resolved result of a duality roll
type Outcome int

const (
	OutcomeUnspecified Outcome = iota
	OutcomeRollWithHope
	OutcomeRollWithFear
	OutcomeSuccessWithHope
	OutcomeSuccessWithFear
	OutcomeFailureWithHope
	OutcomeFailureWithFear
	OutcomeCriticalSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRollWithHope:
		return "Roll with hope"
	case OutcomeRollWithFear:
		return "Roll with fear"
	case OutcomeSuccessWithHope:
		return "Success with hope"
	case OutcomeSuccessWithFear:
		return "Success with fear"
	case OutcomeFailureWithHope:
		return "Failure with hope"
	case OutcomeFailureWithFear:
		return "Failure with fear"
	case OutcomeCriticalSuccess:
		return "Critical success"
	default:
		return "Unspecified"
	}
}

// DualitySides is the size of the hope and fear dice
const DualitySides = 12

// AdvantageSides is the size of the advantage/disadvantage die
const AdvantageSides = 6

// DualityRequest describes a character action roll.
// Advantage above zero adds a d6, below zero subtracts one.
type DualityRequest struct {
	Modifier   int
	Difficulty *int
	Advantage  int
}

// DualityResult captures a resolved duality roll
type DualityResult struct {
	Hope            int     `json:"hope"`
	Fear            int     `json:"fear"`
	AdvantageDie    int     `json:"advantageDie,omitempty"`
	Modifier        int     `json:"modifier"`
	Difficulty      *int    `json:"difficulty,omitempty"`
	Total           int     `json:"total"`
	IsCrit          bool    `json:"isCrit"`
	MeetsDifficulty bool    `json:"meetsDifficulty"`
	Outcome         Outcome `json:"outcome"`
}

// WithHope reports whether the hope die won (crits count as hope)
func (r *DualityResult) WithHope() bool {
	return r.Hope >= r.Fear
}

// WithFear reports whether the fear die won
func (r *DualityResult) WithFear() bool {
	return r.Fear > r.Hope
}

// Succeeded reports whether the roll met its difficulty; with no difficulty
// only a crit counts.
func (r *DualityResult) Succeeded() bool {
	return r.IsCrit || r.MeetsDifficulty
}

// EvaluateDuality resolves hope and fear faces into an outcome
func EvaluateDuality(hope, fear, modifier int, difficulty *int) (*DualityResult, error) {
	if hope < 1 || hope > DualitySides || fear < 1 || fear > DualitySides {
		return nil, dherr.InvalidArgumentf("duality dice must be between 1 and %d", DualitySides)
	}
	if difficulty != nil && *difficulty < 0 {
		return nil, dherr.InvalidArgumentf("difficulty must be non-negative")
	}

	total := hope + fear + modifier
	isCrit := hope == fear
	meets := false
	if difficulty != nil {
		meets = isCrit || total >= *difficulty
	}

	outcome := OutcomeUnspecified
	switch {
	case isCrit:
		outcome = OutcomeCriticalSuccess
	case difficulty == nil && hope > fear:
		outcome = OutcomeRollWithHope
	case difficulty == nil:
		outcome = OutcomeRollWithFear
	case meets && hope > fear:
		outcome = OutcomeSuccessWithHope
	case meets:
		outcome = OutcomeSuccessWithFear
	case hope > fear:
		outcome = OutcomeFailureWithHope
	default:
		outcome = OutcomeFailureWithFear
	}

	return &DualityResult{
		Hope:            hope,
		Fear:            fear,
		Modifier:        modifier,
		Difficulty:      difficulty,
		Total:           total,
		IsCrit:          isCrit,
		MeetsDifficulty: meets,
		Outcome:         outcome,
	}, nil
}

// RollDuality rolls the hope and fear dice, then the advantage die if any
func RollDuality(roller Roller, req DualityRequest) (*DualityResult, error) {
	rolled, err := roller.Roll(2, DualitySides, 0)
	if err != nil {
		return nil, err
	}

	modifier := req.Modifier
	advantage := 0
	if req.Advantage != 0 {
		adv, err := roller.Roll(1, AdvantageSides, 0)
		if err != nil {
			return nil, err
		}
		advantage = adv.Total
		if req.Advantage < 0 {
			advantage = -advantage
		}
		modifier += advantage
	}

	result, err := EvaluateDuality(rolled.Rolls[0], rolled.Rolls[1], modifier, req.Difficulty)
	if err != nil {
		return nil, err
	}
	result.AdvantageDie = advantage
	result.Modifier = req.Modifier
	return result, nil
}

// FearResult is an adversary's d20 roll
type FearResult struct {
	Roll            int  `json:"roll"`
	Modifier        int  `json:"modifier"`
	Difficulty      *int `json:"difficulty,omitempty"`
	Total           int  `json:"total"`
	IsCrit          bool `json:"isCrit"`
	MeetsDifficulty bool `json:"meetsDifficulty"`
}

// Succeeded reports whether the adversary hit
func (r *FearResult) Succeeded() bool {
	return r.IsCrit || r.MeetsDifficulty
}

// RollFear rolls an adversary d20; a natural 20 always succeeds
func RollFear(roller Roller, modifier int, difficulty *int) (*FearResult, error) {
	rolled, err := roller.Roll(1, 20, modifier)
	if err != nil {
		return nil, err
	}

	result := &FearResult{
		Roll:       rolled.Rolls[0],
		Modifier:   modifier,
		Difficulty: difficulty,
		Total:      rolled.Total,
		IsCrit:     rolled.Rolls[0] == 20,
	}
	if difficulty != nil {
		result.MeetsDifficulty = result.IsCrit || result.Total >= *difficulty
	}
	return result, nil
}
