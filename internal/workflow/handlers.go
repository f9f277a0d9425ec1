package workflow

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/KirkDiggler/dh-automation/internal/resources"
)

// MessagePayload is the message.update request
type MessagePayload struct {
	MessageID string  `json:"messageId"`
	Config    *Config `json:"config"`
}

// EffectsPayload is the effects.apply request
type EffectsPayload struct {
	ActorUUID string             `json:"actorUuid"`
	Effects   []*entities.Effect `json:"effects"`
}

// UpdatesPayload is the actor.update request
type UpdatesPayload struct {
	Updates []resources.Update `json:"updates"`
}

// RegisterHandlers installs the authoritative side of the operations stages
// relay: message.update, actor.damage, actor.update and effects.apply.
func (p *Pipeline) RegisterHandlers(registrar Registrar) {
	registrar.Register(relay.OpMessageUpdate, p.handleMessageUpdate)
	registrar.Register(relay.OpActorDamage, p.handleActorDamage)
	registrar.Register(relay.OpActorUpdate, p.handleActorUpdate)
	registrar.Register(relay.OpEffectsApply, p.handleEffectsApply)
}

func (p *Pipeline) handleMessageUpdate(ctx context.Context, req relay.Request) (any, error) {
	var payload MessagePayload
	if err := req.Decode(&payload); err != nil {
		return nil, err
	}
	if p.deps.Messages == nil {
		return nil, dherr.Internalf("no message store configured")
	}
	if _, err := p.deps.Messages.Update(ctx, payload.MessageID, patch.New().Set("config", payload.Config)); err != nil {
		return nil, err
	}
	return nil, nil
}

func (p *Pipeline) handleActorDamage(ctx context.Context, req relay.Request) (any, error) {
	var payload DamagePayload
	if err := req.Decode(&payload); err != nil {
		return nil, err
	}
	return applyDamage(ctx, p.deps, payload)
}

func (p *Pipeline) handleActorUpdate(ctx context.Context, req relay.Request) (any, error) {
	var payload UpdatesPayload
	if err := req.Decode(&payload); err != nil {
		return nil, err
	}
	if p.deps.Ledger == nil {
		return nil, dherr.Internalf("no resource ledger configured")
	}
	return nil, p.deps.Ledger.ApplyUpdates(ctx, payload.Updates)
}

func (p *Pipeline) handleEffectsApply(ctx context.Context, req relay.Request) (any, error) {
	var payload EffectsPayload
	if err := req.Decode(&payload); err != nil {
		return nil, err
	}
	return nil, applyEffects(ctx, p.deps, payload.ActorUUID, payload.Effects)
}
