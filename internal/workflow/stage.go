package workflow

import (
	"context"
)

// Stage priorities. Lower runs first; equal priorities keep registration order.
const (
	PriorityRoll      = 10
	PriorityTarget    = 20
	PrioritySave      = 30
	PriorityDamage    = 50
	PriorityMacro     = 70
	PrioritySummon    = 80
	PriorityBeastform = 90
	PriorityEffects   = 100
	PriorityCountdown = 110
	PriorityCost      = 150
)

// Stage is one step of an action workflow.
//
// Prepare builds the run's config and must not persist anything; returning
// false aborts the whole action. Execute performs the stage's side effects;
// returning false (the user canceled) stops the remaining stages. An error
// from either is exceptional and reaches the caller.
type Stage interface {
	Name() string
	Priority() int
	Prepare(ctx context.Context, run *Run) (bool, error)
	Execute(ctx context.Context, run *Run) (bool, error)
}

// Deferred is implemented by stages that can be re-run later from a stored
// message, such as applying damage after the roll.
type Deferred interface {
	Reinvoke(ctx context.Context, run *Run, req *ReinvokeRequest) error
}
