package workflow

import (
	"context"
	"fmt"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/entities"
)

// SaveStage records the reaction rolls targets make against the action.
// Rolls happen later, when each target's owner re-invokes the stage.
type SaveStage struct {
	deps *Deps
}

func (s *SaveStage) Name() string  { return "save" }
func (s *SaveStage) Priority() int { return PrioritySave }

func (s *SaveStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	if run.Action.Save == nil {
		return true, nil
	}
	save := *run.Action.Save
	run.Config.HasSave = true
	run.Config.Save = &save
	return true, nil
}

func (s *SaveStage) Execute(ctx context.Context, run *Run) (bool, error) {
	return true, nil
}

// Reinvoke rolls the reaction of every selected target the participant
// controls that has not saved yet.
func (s *SaveStage) Reinvoke(ctx context.Context, run *Run, req *ReinvokeRequest) error {
	if !run.Config.HasSave || run.Config.Save == nil {
		return nil
	}
	save := run.Config.Save
	difficulty := save.Difficulty

	for i := range run.Config.Targets {
		target := &run.Config.Targets[i]
		if target.Saved != nil || !req.includes(target.ActorUUID) {
			continue
		}
		actor, err := s.deps.Actors.Get(ctx, target.ActorUUID)
		if err != nil {
			return err
		}
		if !s.deps.canWrite(ctx, actor) {
			s.deps.warn(ctx, fmt.Sprintf("You cannot roll a reaction for %s", actor.Name))
			continue
		}

		modifier := actor.Traits[save.Trait]
		var result SaveResult
		if actor.Type == entities.ActorTypeCharacter {
			roll, err := dice.RollDuality(s.deps.Roller, dice.DualityRequest{Modifier: modifier, Difficulty: &difficulty})
			if err != nil {
				return err
			}
			result = SaveResult{Value: roll.Total, Success: roll.Succeeded()}
		} else {
			roll, err := dice.RollFear(s.deps.Roller, modifier, &difficulty)
			if err != nil {
				return err
			}
			result = SaveResult{Value: roll.Total, Success: roll.Succeeded()}
		}
		target.Saved = &result

		s.deps.Logger.Info("reaction rolled", "run", run.ID, "target", target.ActorUUID,
			"value", result.Value, "success", result.Success)
	}
	return nil
}
