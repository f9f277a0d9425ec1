package workflow

//go:generate mockgen -destination=mock/mock.go -package=mockworkflow -source=interaction.go

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// Prompter collects input from the participant running the action.
// Returning false means the participant canceled.
type Prompter interface {
	// ConfigureRoll lets the participant adjust the roll options in place
	ConfigureRoll(ctx context.Context, actor *entities.Actor, options *RollOptions) (bool, error)

	// ChooseOption asks the participant to pick one of options
	ChooseOption(ctx context.Context, prompt string, options []string) (int, bool, error)
}

// Selector reports the participant's live target selection
type Selector interface {
	Selected(ctx context.Context, participantID string) ([]string, error)
}

// PlaceRequest is one token placement of a summon
type PlaceRequest struct {
	Actor *entities.Actor
	Index int
	Count int
}

// Placer previews and confirms token placement. Returning false means the
// placement was canceled.
type Placer interface {
	Place(ctx context.Context, req PlaceRequest) (bool, error)
}

// MacroLibrary resolves macro scripts by name
type MacroLibrary interface {
	Macro(ctx context.Context, name string) (string, error)
}

// Macros is a fixed in-memory macro library
type Macros map[string]string

func (m Macros) Macro(ctx context.Context, name string) (string, error) {
	code, ok := m[name]
	if !ok {
		return "", dherr.NotFoundf("macro %s not found", name)
	}
	return code, nil
}
