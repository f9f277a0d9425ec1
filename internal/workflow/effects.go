package workflow

import (
	"context"
	"strings"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

const effectSegment = ".ActiveEffect."

// EffectsStage copies the item's referenced effect templates onto the
// targets, or onto the actor when there are none.
type EffectsStage struct {
	deps *Deps
}

func (s *EffectsStage) Name() string  { return "effects" }
func (s *EffectsStage) Priority() int { return PriorityEffects }

func (s *EffectsStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	if len(run.Action.Effects) == 0 {
		return true, nil
	}
	for _, id := range run.Action.Effects {
		if _, ok := run.Item.Effect(id); !ok {
			return false, dherr.Authoringf("action %s references missing effect %s", run.Action.ID, id).
				WithMeta("item", run.Item.UUID)
		}
	}
	run.Config.HasEffect = true
	run.Config.Effects = append([]string(nil), run.Action.Effects...)
	return true, nil
}

func (s *EffectsStage) Execute(ctx context.Context, run *Run) (bool, error) {
	if !run.Config.HasEffect {
		return true, nil
	}

	recipients := make([]string, 0, len(run.Config.Targets))
	for _, t := range run.Config.Targets {
		recipients = append(recipients, t.ActorUUID)
	}
	if len(recipients) == 0 {
		recipients = []string{run.Actor.UUID}
	}

	for _, uuid := range recipients {
		effects := make([]*entities.Effect, 0, len(run.Config.Effects))
		for _, id := range run.Config.Effects {
			template, _ := run.Item.Effect(id)
			effect := template.Clone()
			effect.UUID = uuid + effectSegment + s.deps.UUIDGenerator.New()
			effect.Origin = run.Item.UUID
			effect.Beastform = nil
			effects = append(effects, effect)
		}

		if err := s.apply(ctx, run, uuid, effects); err != nil {
			if dherr.IsUnavailable(err) {
				s.deps.warn(ctx, err.Error())
				continue
			}
			return false, err
		}
	}
	return true, nil
}

func (s *EffectsStage) apply(ctx context.Context, run *Run, actorUUID string, effects []*entities.Effect) error {
	if actorUUID == run.Actor.UUID || s.deps.Authority == nil {
		return applyEffects(ctx, s.deps, actorUUID, effects)
	}
	actor, err := s.deps.Actors.Get(ctx, actorUUID)
	if err != nil {
		return err
	}
	if s.deps.canWrite(ctx, actor) {
		return applyEffects(ctx, s.deps, actorUUID, effects)
	}
	return s.deps.Authority.Execute(ctx, relay.OpEffectsApply, EffectsPayload{ActorUUID: actorUUID, Effects: effects}, nil)
}

// applyEffects embeds effects on an actor and registers their triggers
func applyEffects(ctx context.Context, deps *Deps, actorUUID string, effects []*entities.Effect) error {
	if len(effects) == 0 {
		return nil
	}
	p := patch.New()
	for _, effect := range effects {
		id := effect.UUID
		if i := strings.LastIndex(id, effectSegment); i >= 0 {
			id = id[i+len(effectSegment):]
		}
		p.Set("effects."+id, effect)
	}

	updated, err := deps.Actors.Update(ctx, actorUUID, p)
	if err != nil {
		return dherr.Wrapf(err, "failed to apply effects to %s", actorUUID)
	}
	if deps.Triggers != nil {
		if err := deps.Triggers.RegisterActor(updated); err != nil {
			return err
		}
	}
	deps.announce(ctx, actorUUID)
	deps.Logger.Info("effects applied", "actor", actorUUID, "count", len(effects))
	return nil
}
