package workflow

import (
	"context"
	"fmt"

	"github.com/KirkDiggler/dh-automation/internal/resources"
)

// CostStage checks the action's costs up front and spends them last, once
// the roll outcome is known.
type CostStage struct {
	deps *Deps
}

func (s *CostStage) Name() string  { return "cost" }
func (s *CostStage) Priority() int { return PriorityCost }

func (s *CostStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	if len(run.Action.Cost) == 0 || s.deps.Ledger == nil {
		return true, nil
	}

	costs := resources.FromDefs(run.Action.Cost)
	for i := range costs {
		costs[i].Scale = run.Request.Scale[costs[i].Key]
	}
	available, err := s.deps.Ledger.GetResources(ctx, run.Actor, costs)
	if err != nil {
		return false, err
	}
	costs = resources.CalcCosts(available, costs)

	ok, err := s.deps.Ledger.HasCost(ctx, run.Actor, costs)
	if err != nil {
		return false, err
	}
	if !ok {
		s.deps.warn(ctx, fmt.Sprintf("Not enough resources to use %s", run.Action.Name))
		return false, nil
	}
	run.Config.Costs = costs
	return true, nil
}

func (s *CostStage) Execute(ctx context.Context, run *Run) (bool, error) {
	cfg := run.Config
	if len(cfg.Costs) == 0 {
		return true, nil
	}

	succeeded := cfg.Roll.Succeeded()
	if _, err := s.deps.Ledger.Execute(ctx, run.Actor, cfg.Costs, false, succeeded); err != nil {
		return false, err
	}
	if succeeded {
		cfg.SuccessConsumed = true
	}
	return true, nil
}
