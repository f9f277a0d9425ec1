package workflow

import (
	"context"
	"fmt"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/formula"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/resources"
	"github.com/KirkDiggler/dh-automation/internal/triggers"
)

// DamagePayload is the actor.damage request
type DamagePayload struct {
	ActorUUID string `json:"actorUuid"`
	ApplyTo   string `json:"applyTo"`
	Amount    int    `json:"amount"`
	Healing   bool   `json:"healing,omitempty"`
	Direct    bool   `json:"direct,omitempty"`
}

// DamageResult reports what the damage marked
type DamageResult struct {
	Marked int `json:"marked"`
}

// DamageStage rolls damage and healing when the action runs. Applying it is
// deferred until a participant re-invokes the stage from the message.
type DamageStage struct {
	deps *Deps
}

func (s *DamageStage) Name() string  { return "damage" }
func (s *DamageStage) Priority() int { return PriorityDamage }

func (s *DamageStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	def := run.Action.Damage
	if def == nil || len(def.Parts) == 0 {
		return true, nil
	}
	for _, part := range def.Parts {
		if _, err := formula.Parse(part.Formula); err != nil {
			return false, err
		}
	}
	run.Config.HasDamage = true
	return true, nil
}

func (s *DamageStage) Execute(ctx context.Context, run *Run) (bool, error) {
	if !run.Config.HasDamage {
		return true, nil
	}
	def := run.Action.Damage
	vars := run.Vars()

	outcome := &DamageOutcome{Direct: def.Direct}
	for _, part := range def.Parts {
		result, err := formula.Evaluate(part.Formula, s.deps.Roller, vars)
		if err != nil {
			return false, err
		}
		applyTo := part.ApplyTo
		if applyTo == "" {
			applyTo = entities.ResourceHitPoints
		}
		outcome.Parts = append(outcome.Parts, DamageRoll{
			Formula: part.Formula,
			ApplyTo: applyTo,
			Healing: part.Healing,
			Total:   result.Total,
		})
	}
	run.Config.Damage = outcome
	return true, nil
}

// Reinvoke applies the rolled damage. Write permission on each target is
// checked now, not when the action was rolled; targets the participant
// cannot write are handled by the authoritative participant.
func (s *DamageStage) Reinvoke(ctx context.Context, run *Run, req *ReinvokeRequest) error {
	damage := run.Config.Damage
	if damage == nil {
		return nil
	}

	recipients := run.Config.Targets
	if len(recipients) == 0 {
		recipients = []Target{newTarget(run.Actor)}
	}

	applied := 0
	for _, target := range recipients {
		if !req.includes(target.ActorUUID) || contains(damage.Applied, target.ActorUUID) {
			continue
		}
		actor, err := s.deps.Actors.Get(ctx, target.ActorUUID)
		if err != nil {
			return err
		}

		landed := true
		for _, part := range damage.Parts {
			amount := part.Total
			if !part.Healing {
				amount = savedAmount(amount, target.Saved, run.Config.Save)
			}
			if amount <= 0 {
				continue
			}
			payload := DamagePayload{
				ActorUUID: actor.UUID,
				ApplyTo:   part.ApplyTo,
				Amount:    amount,
				Healing:   part.Healing,
				Direct:    damage.Direct,
			}
			if err := s.apply(ctx, actor, payload); err != nil {
				if dherr.IsUnavailable(err) {
					s.deps.warn(ctx, err.Error())
					landed = false
					break
				}
				return err
			}
		}
		if landed {
			damage.Applied = append(damage.Applied, actor.UUID)
			applied++
		}
	}

	if applied > 0 {
		s.consumeSuccessCosts(ctx, run)
	}
	return nil
}

func (s *DamageStage) apply(ctx context.Context, actor *entities.Actor, payload DamagePayload) error {
	if s.deps.canWrite(ctx, actor) || s.deps.Authority == nil {
		_, err := applyDamage(ctx, s.deps, payload)
		return err
	}
	return s.deps.Authority.Execute(ctx, relay.OpActorDamage, payload, nil)
}

// consumeSuccessCosts spends success-only costs the first time damage lands
func (s *DamageStage) consumeSuccessCosts(ctx context.Context, run *Run) {
	cfg := run.Config
	if cfg.SuccessConsumed || s.deps.Ledger == nil || len(cfg.Costs) == 0 {
		return
	}
	if cfg.Roll != nil && cfg.Roll.Difficulty != nil && !cfg.Roll.Succeeded() {
		return
	}
	if _, err := s.deps.Ledger.Execute(ctx, run.Actor, cfg.Costs, true, true); err != nil {
		s.deps.warn(ctx, fmt.Sprintf("Could not spend %s costs: %v", run.Action.Name, err))
		return
	}
	cfg.SuccessConsumed = true
}

// savedAmount adjusts damage for a target's reaction roll: a successful save
// halves it when the save says so and negates it otherwise.
func savedAmount(amount int, saved *SaveResult, save *entities.SaveDef) int {
	if saved == nil || !saved.Success || save == nil {
		return amount
	}
	if save.DamageMod == entities.DamageModHalf {
		return amount / 2
	}
	return 0
}

// ThresholdMarks maps damage to marked hit points: 1 below major, 2 from
// major, 3 from severe.
func ThresholdMarks(amount int, thresholds entities.Thresholds) int {
	switch {
	case amount <= 0:
		return 0
	case thresholds.Severe > 0 && amount >= thresholds.Severe:
		return 3
	case thresholds.Major > 0 && amount >= thresholds.Major:
		return 2
	default:
		return 1
	}
}

// applyDamage lands damage or healing on an actor the caller may write.
// damageReduction commands run first; each armor slot they mark reduces the
// hit points marked by one.
func applyDamage(ctx context.Context, deps *Deps, payload DamagePayload) (*DamageResult, error) {
	if deps.Ledger == nil {
		return nil, dherr.Internalf("no resource ledger configured")
	}
	actor, err := deps.Actors.Get(ctx, payload.ActorUUID)
	if err != nil {
		return nil, err
	}
	applyTo := payload.ApplyTo
	if applyTo == "" {
		applyTo = entities.ResourceHitPoints
	}
	res, ok := actor.Resources[applyTo]
	if !ok {
		return nil, dherr.Authoringf("%s has no %s resource", actor.Name, applyTo)
	}

	if payload.Healing {
		delta := payload.Amount
		if res.IsReversed {
			delta = -delta
		}
		err := deps.Ledger.ApplyUpdates(ctx, []resources.Update{{ActorUUID: actor.UUID, Key: applyTo, Value: delta}})
		return &DamageResult{}, err
	}

	marked := payload.Amount
	if applyTo == entities.ResourceHitPoints && !payload.Direct {
		marked = ThresholdMarks(payload.Amount, actor.Thresholds)
	}
	damageArgs := map[string]any{"amount": payload.Amount, "applyTo": applyTo, "marked": marked}

	if deps.Triggers != nil {
		updates, err := deps.Triggers.Run(ctx, triggers.DamageReduction, actor.UUID, map[string]any{
			"damage": damageArgs,
			"actor":  toMap(actor),
		})
		if err != nil {
			return nil, err
		}
		for _, u := range updates {
			if u.ActorUUID == actor.UUID && u.Key == entities.ResourceArmor && u.ItemUUID == "" && u.Value > 0 {
				marked -= u.Value
			}
		}
		if marked < 0 {
			marked = 0
		}
		deps.applyUpdatesOrWarn(ctx, updates, "damage reduction")
	}

	delta := -marked
	if res.IsReversed {
		delta = marked
	}
	if marked > 0 {
		if err := deps.Ledger.ApplyUpdates(ctx, []resources.Update{{ActorUUID: actor.UUID, Key: applyTo, Value: delta}}); err != nil {
			return nil, err
		}
	}

	if deps.Triggers != nil {
		damageArgs["marked"] = marked
		updates, err := deps.Triggers.Run(ctx, triggers.PostDamageReduction, actor.UUID, map[string]any{
			"damage": damageArgs,
			"marked": marked,
			"actor":  toMap(actor),
		})
		if err != nil {
			return nil, err
		}
		deps.applyUpdatesOrWarn(ctx, updates, "post damage reduction")
	}

	deps.Logger.Info("damage applied", "actor", actor.UUID, "resource", applyTo,
		"amount", payload.Amount, "marked", marked)
	return &DamageResult{Marked: marked}, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
