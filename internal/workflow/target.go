package workflow

import (
	"context"
	"fmt"

	"github.com/KirkDiggler/dh-automation/internal/entities"
)

// TargetStage captures the action's targets: the actor itself, the explicit
// targets of the request, or the participant's live selection, filtered by
// disposition.
type TargetStage struct {
	deps *Deps
}

func (s *TargetStage) Name() string  { return "target" }
func (s *TargetStage) Priority() int { return PriorityTarget }

func (s *TargetStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	def := run.Action.Target
	if def == nil && len(run.Request.Targets) == 0 {
		return true, nil
	}
	if def == nil {
		def = &entities.TargetDef{Type: entities.TargetAny}
	}
	run.Config.HasTarget = true

	var candidates []*entities.Actor
	if def.Type == entities.TargetSelf {
		candidates = []*entities.Actor{run.Actor}
	} else {
		uuids := run.Request.Targets
		if len(uuids) == 0 && s.deps.Selector != nil {
			selected, err := s.deps.Selector.Selected(ctx, run.ParticipantID)
			if err != nil {
				return false, err
			}
			uuids = selected
		}
		if len(uuids) > 0 {
			found, err := s.deps.Actors.ListByUUIDs(ctx, uuids)
			if err != nil {
				return false, err
			}
			candidates = found
		}
	}

	targets := make([]Target, 0, len(candidates))
	for _, actor := range candidates {
		if !matchesDisposition(def.Type, run.Actor, actor) {
			continue
		}
		targets = append(targets, newTarget(actor))
		if def.Amount > 0 && len(targets) == def.Amount {
			break
		}
	}
	run.Config.Targets = targets

	if def.Required && len(targets) == 0 {
		s.deps.warn(ctx, fmt.Sprintf("%s needs a target", run.Action.Name))
		return false, nil
	}
	return true, nil
}

func (s *TargetStage) Execute(ctx context.Context, run *Run) (bool, error) {
	return true, nil
}

func newTarget(actor *entities.Actor) Target {
	t := Target{
		ID:        actor.UUID,
		ActorUUID: actor.UUID,
		Name:      actor.Name,
		Img:       actor.Img,
		Evasion:   actor.Evasion,
	}
	// Characters are hit against evasion, everyone else against difficulty
	if actor.Type == entities.ActorTypeCharacter {
		t.Difficulty = actor.Evasion
	} else {
		t.Difficulty = actor.Difficulty
	}
	return t
}

func matchesDisposition(filter entities.TargetType, source, target *entities.Actor) bool {
	switch filter {
	case entities.TargetSelf:
		return source.UUID == target.UUID
	case entities.TargetFriendly:
		return target.Disposition == source.Disposition
	case entities.TargetHostile:
		return target.Disposition != source.Disposition && target.Disposition != entities.DispositionSecret
	default:
		return true
	}
}
