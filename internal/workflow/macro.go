package workflow

import (
	"context"
	"fmt"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/triggers"
)

var macroParams = []string{"actor", "roll", "targets", "config"}

// MacroStage runs the action's named macro. Macros use the trigger command
// grammar, so they can update the actor's resources and write to the config.
type MacroStage struct {
	deps *Deps
}

func (s *MacroStage) Name() string  { return "macro" }
func (s *MacroStage) Priority() int { return PriorityMacro }

func (s *MacroStage) Prepare(ctx context.Context, run *Run) (bool, error) {
	name := run.Action.Macro
	if name == "" {
		return true, nil
	}
	if s.deps.Macros == nil {
		return false, dherr.Authoringf("macro %q referenced but no macros are available", name)
	}
	source, err := s.deps.Macros.Macro(ctx, name)
	if dherr.IsNotFound(err) {
		return false, dherr.WrapWithCode(err, dherr.CodeAuthoring, fmt.Sprintf("macro %q does not exist", name))
	}
	if err != nil {
		return false, err
	}
	if _, err := triggers.NewExprCommand(source, macroParams); err != nil {
		return false, dherr.Wrapf(err, "macro %q", name)
	}
	run.Config.Macro = name
	return true, nil
}

func (s *MacroStage) Execute(ctx context.Context, run *Run) (bool, error) {
	if run.Config.Macro == "" {
		return true, nil
	}
	source, err := s.deps.Macros.Macro(ctx, run.Config.Macro)
	if err != nil {
		return false, err
	}
	command, err := triggers.NewExprCommand(source, macroParams)
	if err != nil {
		return false, err
	}

	targets := make([]any, 0, len(run.Config.Targets))
	for _, t := range run.Config.Targets {
		targets = append(targets, toMap(t))
	}
	call := &triggers.Call{
		OwnerUUID:   run.Actor.UUID,
		InvokerUUID: run.Actor.UUID,
		Args: map[string]any{
			"actor":   toMap(run.Actor),
			"roll":    toMap(run.Config.Roll),
			"targets": targets,
		},
		Config: run.Config.Data,
	}
	if err := command.Run(ctx, call); err != nil {
		s.deps.Logger.Warn("macro failed", "run", run.ID, "macro", run.Config.Macro, "error", err)
		s.deps.fail(ctx, fmt.Sprintf("Macro %s failed: %v", run.Config.Macro, err))
		return true, nil
	}
	s.deps.applyUpdatesOrWarn(ctx, call.Updates, "macro "+run.Config.Macro)
	return true, nil
}
