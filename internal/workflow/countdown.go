package workflow

import (
	"context"
	"fmt"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/formula"
	"github.com/KirkDiggler/dh-automation/internal/services/countdown"
)

// CountdownStage creates the action's countdowns. Countdowns live on the
// campaign, so the action is refused unless a game master is online.
type CountdownStage struct {
	deps *Deps
}

func (s *CountdownStage) Name() string  { return "countdown" }
func (s *CountdownStage) Priority() int { return PriorityCountdown }

func (s *CountdownStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	if len(run.Action.Countdowns) == 0 {
		return true, nil
	}
	for _, def := range run.Action.Countdowns {
		if _, err := formula.Parse(def.Formula); err != nil {
			return false, err
		}
	}
	if s.deps.Countdowns == nil {
		return false, dherr.Internalf("no countdown service configured")
	}
	if s.deps.Authority == nil || !s.deps.Authority.HasAuthority(ctx) {
		s.deps.warn(ctx, fmt.Sprintf("%s needs a game master online to create countdowns", run.Action.Name))
		return false, nil
	}
	return true, nil
}

func (s *CountdownStage) Execute(ctx context.Context, run *Run) (bool, error) {
	for _, def := range run.Action.Countdowns {
		created, err := s.deps.Countdowns.Create(ctx, &countdown.CreateInput{Def: def, Vars: run.Vars()})
		if dherr.IsUnavailable(err) {
			s.deps.warn(ctx, err.Error())
			return false, nil
		}
		if err != nil {
			return false, err
		}
		run.Config.Countdowns = append(run.Config.Countdowns, created)
	}
	return true, nil
}
