package workflow

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/formula"
	"github.com/KirkDiggler/dh-automation/internal/resources"
	"github.com/KirkDiggler/dh-automation/internal/triggers"
)

// RollStage resolves the action roll: a duality roll for characters, a d20
// for adversaries, or a plain dice formula.
type RollStage struct {
	deps *Deps
}

func (s *RollStage) Name() string  { return "roll" }
func (s *RollStage) Priority() int { return PriorityRoll }

func (s *RollStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	def := run.Action.Roll
	if def == nil {
		return true, nil
	}
	switch def.Type {
	case entities.RollTypeDuality, entities.RollTypeFear:
	case entities.RollTypeDiceSet:
		if def.Formula == "" {
			return false, dherr.Authoringf("action %s rolls a dice set without a formula", run.Action.ID)
		}
		if _, err := formula.Parse(def.Formula); err != nil {
			return false, err
		}
	default:
		return false, dherr.Authoringf("action %s has unknown roll type %q", run.Action.ID, def.Type)
	}
	run.Config.HasRoll = true
	return true, nil
}

func (s *RollStage) Execute(ctx context.Context, run *Run) (bool, error) {
	if !run.Config.HasRoll {
		return true, nil
	}
	def := run.Action.Roll

	if run.Config.Dialog.Configure && s.deps.Prompter != nil {
		ok, err := s.deps.Prompter.ConfigureRoll(ctx, run.Actor, &run.Config.RollOptions)
		if err != nil || !ok {
			return false, err
		}
	}

	opts := run.Config.RollOptions
	modifier := def.Bonus + opts.Bonus + run.Actor.Traits[def.Trait]
	difficulty := rollDifficulty(run)

	outcome := &RollOutcome{Type: def.Type, Difficulty: difficulty}
	trigger := triggers.Type("")

	switch {
	case def.Type == entities.RollTypeDiceSet:
		result, err := formula.Evaluate(def.Formula, s.deps.Roller, run.Vars())
		if err != nil {
			return false, err
		}
		outcome.Dice = result
		outcome.Total = result.Total + def.Bonus + opts.Bonus

	case def.Type == entities.RollTypeFear || run.Actor.Type == entities.ActorTypeAdversary:
		if opts.Advantage != 0 {
			modifier += advantageBonus(s.deps.Roller, opts.Advantage)
		}
		result, err := dice.RollFear(s.deps.Roller, modifier, difficulty)
		if err != nil {
			return false, err
		}
		outcome.Type = entities.RollTypeFear
		outcome.Fear = result
		outcome.Total = result.Total
		trigger = triggers.FearRoll

	default:
		result, err := dice.RollDuality(s.deps.Roller, dice.DualityRequest{
			Modifier:   modifier,
			Difficulty: difficulty,
			Advantage:  opts.Advantage,
		})
		if err != nil {
			return false, err
		}
		outcome.Duality = result
		outcome.Total = result.Total
		trigger = triggers.DualityRoll
	}
	run.Config.Roll = outcome

	s.deps.Logger.Debug("action rolled", "run", run.ID, "type", outcome.Type, "total", outcome.Total,
		"success", outcome.Succeeded())

	if trigger != "" && s.deps.Triggers != nil {
		updates, err := s.deps.Triggers.Run(ctx, trigger, run.Actor.UUID, map[string]any{
			"roll":   toMap(outcome),
			"actor":  toMap(run.Actor),
			"config": run.Config.Data,
		})
		if err != nil {
			return false, err
		}
		s.deps.applyUpdatesOrWarn(ctx, updates, "roll triggers")
	}

	if outcome.Duality != nil && run.Actor.Type == entities.ActorTypeCharacter && s.deps.automation(ctx).HopeFear {
		s.deps.applyUpdatesOrWarn(ctx, hopeFearUpdates(run.Actor.UUID, outcome.Duality), "hope and fear")
	}
	return true, nil
}

// hopeFearUpdates are the automatic resource changes after a duality roll:
// a crit grants hope and clears stress, otherwise the winning die's pool
// gains one.
func hopeFearUpdates(actorUUID string, roll *dice.DualityResult) []resources.Update {
	switch {
	case roll.IsCrit:
		return []resources.Update{
			{ActorUUID: actorUUID, Key: entities.ResourceHope, Value: 1},
			{ActorUUID: actorUUID, Key: entities.ResourceStress, Value: -1},
		}
	case roll.WithHope():
		return []resources.Update{{ActorUUID: actorUUID, Key: entities.ResourceHope, Value: 1}}
	default:
		return []resources.Update{{Key: entities.ResourceFear, Value: 1}}
	}
}

// rollDifficulty is the action's difficulty, else the first target's
func rollDifficulty(run *Run) *int {
	if d := run.Action.Roll.Difficulty; d > 0 {
		return &d
	}
	if len(run.Config.Targets) > 0 {
		if d := run.Config.Targets[0].Difficulty; d > 0 {
			return &d
		}
	}
	return nil
}

func advantageBonus(roller dice.Roller, advantage int) int {
	rolled, err := roller.Roll(1, dice.AdvantageSides, 0)
	if err != nil {
		return 0
	}
	if advantage < 0 {
		return -rolled.Total
	}
	return rolled.Total
}
