package workflow

import (
	"context"
	"fmt"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/services/beastform"
)

// BeastformStage offers the action's forms and transforms the actor into the
// chosen one.
type BeastformStage struct {
	deps *Deps
}

func (s *BeastformStage) Name() string  { return "beastform" }
func (s *BeastformStage) Priority() int { return PriorityBeastform }

func (s *BeastformStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	def := run.Action.Beastform
	if def == nil {
		return true, nil
	}
	if len(def.Options) == 0 {
		return false, dherr.Authoringf("beastform action %s has no forms", run.Action.ID)
	}
	if s.deps.Beastform == nil {
		return false, dherr.Internalf("no beastform service configured")
	}
	return true, nil
}

func (s *BeastformStage) Execute(ctx context.Context, run *Run) (bool, error) {
	def := run.Action.Beastform
	if def == nil {
		return true, nil
	}

	choice := 0
	if len(def.Options) > 1 {
		if s.deps.Prompter == nil {
			return false, dherr.Internalf("choosing a beastform needs a prompter")
		}
		names := make([]string, len(def.Options))
		for i, opt := range def.Options {
			names[i] = opt.Name
		}
		picked, ok, err := s.deps.Prompter.ChooseOption(ctx, fmt.Sprintf("Choose a form for %s", run.Actor.Name), names)
		if err != nil || !ok {
			return false, err
		}
		if picked < 0 || picked >= len(def.Options) {
			return false, dherr.InvalidArgumentf("form %d out of range", picked)
		}
		choice = picked
	}

	form, err := s.deps.Beastform.Apply(ctx, &beastform.ApplyInput{
		ActorUUID:  run.Actor.UUID,
		Option:     &def.Options[choice],
		OriginUUID: run.Item.UUID,
	})
	if err != nil {
		return false, err
	}
	run.Config.Beastform = form.UUID
	s.deps.announce(ctx, run.Actor.UUID)
	return true, nil
}
