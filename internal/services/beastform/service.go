// Package beastform applies and reverts shapeshifting transformations. An
// actor carries at most one active form; applying a new one silently reverts
// the previous.
package beastform

//go:generate mockgen -destination=mock/mock_service.go -package=mockbeastform -source=service.go

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/actors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/KirkDiggler/dh-automation/internal/uuid"
)

// Service defines the beastform service interface
type Service interface {
	// Apply transforms the actor, reverting any active form first
	Apply(ctx context.Context, input *ApplyInput) (*entities.Effect, error)

	// Revert ends the active form. It is a no-op when none is active.
	Revert(ctx context.Context, actorUUID string) error

	// Active returns the actor's transformation effect, or nil
	Active(ctx context.Context, actorUUID string) (*entities.Effect, error)
}

// TriggerRegistrar is the part of the trigger registry the service keeps in sync
type TriggerRegistrar interface {
	RegisterActor(actor *entities.Actor) error
	Unregister(subscriberUUID string)
}

// ApplyInput names the actor, the chosen form and the originating item
type ApplyInput struct {
	ActorUUID  string
	Option     *entities.BeastformOption
	OriginUUID string
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Actors        actors.Repository // Required
	Triggers      TriggerRegistrar  // Optional
	UUIDGenerator uuid.Generator    // Optional, will use default if nil
	Logger        *slog.Logger
}

type service struct {
	actors        actors.Repository
	triggers      TriggerRegistrar
	uuidGenerator uuid.Generator
	logger        *slog.Logger
}

// NewService creates a new beastform service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Actors == nil {
		panic("actor repository is required")
	}

	svc := &service{
		actors:        cfg.Actors,
		triggers:      cfg.Triggers,
		uuidGenerator: cfg.UUIDGenerator,
		logger:        cfg.Logger,
	}
	if svc.uuidGenerator == nil {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

func (s *service) Apply(ctx context.Context, input *ApplyInput) (*entities.Effect, error) {
	if input == nil || input.Option == nil {
		return nil, dherr.InvalidArgumentf("beastform option is required")
	}
	if input.ActorUUID == "" {
		return nil, dherr.InvalidArgumentf("actor UUID is required")
	}

	actor, err := s.actors.Get(ctx, input.ActorUUID)
	if err != nil {
		return nil, err
	}

	if id, active := activeForm(actor); active != nil {
		s.logger.Debug("replacing active beastform", "actor", actor.UUID, "form", active.Beastform.Form)
		if actor, err = s.revert(ctx, actor, id, active); err != nil {
			return nil, err
		}
	}

	option := input.Option
	state := &entities.BeastformState{Form: option.Name, Snapshot: actor.Token}
	p := patch.New().Set("token", entities.Token{
		Img:    option.TokenImg,
		Width:  option.TokenWidth,
		Height: option.TokenHeight,
	})

	for _, feature := range option.Features {
		if feature == nil {
			continue
		}
		id := s.uuidGenerator.New()
		item := *feature
		item.UUID = actor.UUID + ".Item." + id
		p.Set("items."+id, &item)
		state.FeatureIDs = append(state.FeatureIDs, id)
	}
	for _, effect := range option.Effects {
		if effect == nil {
			continue
		}
		id := s.uuidGenerator.New()
		granted := effect.Clone()
		granted.UUID = actor.UUID + ".ActiveEffect." + id
		granted.Beastform = nil
		p.Set("effects."+id, granted)
		state.EffectIDs = append(state.EffectIDs, id)
	}

	formID := s.uuidGenerator.New()
	form := &entities.Effect{
		UUID:      actor.UUID + ".ActiveEffect." + formID,
		Name:      option.Name,
		Img:       option.TokenImg,
		Origin:    input.OriginUUID,
		Beastform: state,
	}
	p.Set("effects."+formID, form)

	updated, err := s.actors.Update(ctx, actor.UUID, p)
	if err != nil {
		return nil, dherr.Wrapf(err, "failed to apply beastform %s", option.Name)
	}

	if s.triggers != nil {
		if err := s.triggers.RegisterActor(updated); err != nil {
			return nil, err
		}
	}

	s.logger.Info("beastform applied", "actor", actor.UUID, "form", option.Name,
		"features", len(state.FeatureIDs), "effects", len(state.EffectIDs))
	return form, nil
}

func (s *service) Revert(ctx context.Context, actorUUID string) error {
	actor, err := s.actors.Get(ctx, actorUUID)
	if err != nil {
		return err
	}
	id, active := activeForm(actor)
	if active == nil {
		return nil
	}
	_, err = s.revert(ctx, actor, id, active)
	return err
}

func (s *service) Active(ctx context.Context, actorUUID string) (*entities.Effect, error) {
	actor, err := s.actors.Get(ctx, actorUUID)
	if err != nil {
		return nil, err
	}
	_, active := activeForm(actor)
	return active, nil
}

// revert restores the snapshot token and removes everything the form granted
func (s *service) revert(ctx context.Context, actor *entities.Actor, formID string, form *entities.Effect) (*entities.Actor, error) {
	state := form.Beastform
	p := patch.New().
		Set("token", state.Snapshot).
		Remove("effects", formID)

	removed := []string{form.UUID}
	for _, id := range state.FeatureIDs {
		if item, ok := actor.Items[id]; ok {
			removed = append(removed, item.UUID)
		}
		p.Remove("items", id)
	}
	for _, id := range state.EffectIDs {
		if effect, ok := actor.Effects[id]; ok {
			removed = append(removed, effect.UUID)
		}
		p.Remove("effects", id)
	}

	updated, err := s.actors.Update(ctx, actor.UUID, p)
	if err != nil {
		return nil, dherr.Wrapf(err, "failed to revert beastform %s", state.Form)
	}

	if s.triggers != nil {
		for _, uuid := range removed {
			s.triggers.Unregister(uuid)
		}
	}

	s.logger.Info("beastform reverted", "actor", actor.UUID, "form", state.Form)
	return updated, nil
}

func activeForm(actor *entities.Actor) (string, *entities.Effect) {
	for _, id := range actor.EffectIDs() {
		if effect := actor.Effects[id]; effect.Beastform != nil {
			return id, effect
		}
	}
	return "", nil
}
