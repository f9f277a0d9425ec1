package workflow

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/formula"
)

// SummonState is where a summon entry is in its placement sequence
type SummonState string

const (
	SummonRollingCount SummonState = "rolling-count"
	SummonSpawning     SummonState = "spawning"
	SummonDone         SummonState = "done"
)

// SummonStage places summoned actors one token at a time. Canceling a
// placement ends that entry only; the next entry still runs.
type SummonStage struct {
	deps *Deps
}

func (s *SummonStage) Name() string  { return "summon" }
func (s *SummonStage) Priority() int { return PrioritySummon }

func (s *SummonStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	for _, def := range run.Action.Summons {
		if _, err := formula.Parse(countFormula(def)); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *SummonStage) Execute(ctx context.Context, run *Run) (bool, error) {
	for i, def := range run.Action.Summons {
		outcome, err := s.summon(ctx, run, i, def)
		if err != nil {
			return false, err
		}
		run.Config.Summons = append(run.Config.Summons, *outcome)
	}
	return true, nil
}

func (s *SummonStage) summon(ctx context.Context, run *Run, entry int, def entities.SummonDef) (*SummonOutcome, error) {
	logger := s.deps.Logger.With("run", run.ID, "entry", entry, "actor", def.ActorUUID)
	outcome := &SummonOutcome{ActorUUID: def.ActorUUID}

	logger.Debug("summon state", "state", SummonRollingCount)
	rolled, err := formula.Evaluate(countFormula(def), s.deps.Roller, run.Vars())
	if err != nil {
		return nil, err
	}
	outcome.Requested = rolled.Total

	actor, err := s.resolveActor(ctx, def.ActorUUID)
	if err != nil {
		return nil, err
	}
	outcome.ActorUUID = actor.UUID

	if s.deps.Placer == nil {
		logger.Warn("no placer configured, skipping summon")
		return outcome, nil
	}

	for i := 0; i < outcome.Requested; i++ {
		logger.Debug("summon state", "state", SummonSpawning, "index", i)
		placed, err := s.deps.Placer.Place(ctx, PlaceRequest{Actor: actor, Index: i, Count: outcome.Requested})
		if err != nil {
			return nil, err
		}
		if !placed {
			logger.Info("summon placement canceled", "index", i)
			break
		}
		outcome.Placed++
	}

	logger.Debug("summon state", "state", SummonDone, "placed", outcome.Placed)
	return outcome, nil
}

// resolveActor prefers a same-named world actor over a compendium actor that
// still carries placeholder art.
func (s *SummonStage) resolveActor(ctx context.Context, uuid string) (*entities.Actor, error) {
	actor, err := s.deps.Actors.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if !actor.Compendium || actor.Img != entities.PlaceholderImg {
		return actor, nil
	}
	world, err := s.deps.Actors.FindByName(ctx, actor.Name)
	if err != nil {
		return actor, nil
	}
	return world, nil
}

func countFormula(def entities.SummonDef) string {
	if def.Count == "" {
		return "1"
	}
	return def.Count
}
