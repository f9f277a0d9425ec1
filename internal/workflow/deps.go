package workflow

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/notify"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/actors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/campaigns"
	"github.com/KirkDiggler/dh-automation/internal/repositories/messages"
	"github.com/KirkDiggler/dh-automation/internal/resources"
	"github.com/KirkDiggler/dh-automation/internal/services/beastform"
	"github.com/KirkDiggler/dh-automation/internal/services/countdown"
	"github.com/KirkDiggler/dh-automation/internal/triggers"
	"github.com/KirkDiggler/dh-automation/internal/uuid"
)

// Authority is the slice of the relay the workflow needs
type Authority interface {
	HasAuthority(ctx context.Context) bool
	IsAuthority(ctx context.Context) bool
	Execute(ctx context.Context, operation string, payload any, result any) error
	Refresh(ctx context.Context, operation string, payload any)
}

// Registrar accepts relay handlers
type Registrar interface {
	Register(operation string, handler relay.Handler)
}

// Deps are the collaborators stages share. Interaction fields may be nil;
// stages then fall back to their non-interactive behavior.
type Deps struct {
	Actors        actors.Repository
	Messages      messages.Repository
	Campaigns     campaigns.Repository
	CampaignID    string
	Ledger        *resources.Ledger
	Triggers      *triggers.Registry
	Authority     Authority
	Roller        dice.Roller
	Notifier      notify.Notifier
	Prompter      Prompter
	Selector      Selector
	Placer        Placer
	Macros        MacroLibrary
	Beastform     beastform.Service
	Countdowns    countdown.Service
	UUIDGenerator uuid.Generator
	ParticipantID string
	Logger        *slog.Logger
}

func (d *Deps) setDefaults() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewSlogNotifier(d.Logger)
	}
	if d.UUIDGenerator == nil {
		d.UUIDGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if d.Roller == nil {
		d.Roller = dice.NewRandomRoller()
	}
}

func (d *Deps) warn(ctx context.Context, message string) {
	d.Notifier.Notify(ctx, d.ParticipantID, notify.LevelWarn, message)
}

func (d *Deps) fail(ctx context.Context, message string) {
	d.Notifier.Notify(ctx, d.ParticipantID, notify.LevelError, message)
}

func (d *Deps) isAuthority(ctx context.Context) bool {
	return d.Authority != nil && d.Authority.IsAuthority(ctx)
}

// announce tells other participants that actorUUID's items or effects changed
func (d *Deps) announce(ctx context.Context, actorUUID string) {
	if d.Authority != nil {
		d.Authority.Refresh(ctx, relay.OpActorChanged, relay.ActorRef{ActorUUID: actorUUID})
	}
}

// canWrite reports whether the local participant may patch actor directly
func (d *Deps) canWrite(ctx context.Context, actor *entities.Actor) bool {
	return actor.IsOwnedBy(d.ParticipantID) || d.isAuthority(ctx)
}

func (d *Deps) automation(ctx context.Context) entities.Automation {
	if d.Campaigns == nil {
		return entities.Automation{}
	}
	campaign, err := d.Campaigns.Get(ctx, d.CampaignID)
	if err != nil {
		d.Logger.Warn("campaign lookup failed", "campaign", d.CampaignID, "error", err)
		return entities.Automation{}
	}
	return campaign.Automation
}

// applyUpdates patches the actors the local participant may write and sends
// the rest to the authoritative participant.
func (d *Deps) applyUpdates(ctx context.Context, updates []resources.Update) error {
	if len(updates) == 0 || d.Ledger == nil {
		return nil
	}

	var local, remote []resources.Update
	writable := make(map[string]bool)
	for _, u := range updates {
		if u.ActorUUID == "" || (u.Key == entities.ResourceFear && u.ItemUUID == "") {
			local = append(local, u)
			continue
		}
		ok, seen := writable[u.ActorUUID]
		if !seen {
			actor, err := d.Actors.Get(ctx, u.ActorUUID)
			if err != nil {
				return err
			}
			ok = d.canWrite(ctx, actor)
			writable[u.ActorUUID] = ok
		}
		if ok {
			local = append(local, u)
		} else {
			remote = append(remote, u)
		}
	}

	if d.Authority == nil {
		local, remote = append(local, remote...), nil
	}
	if err := d.Ledger.ApplyUpdates(ctx, local); err != nil {
		return err
	}
	if len(remote) > 0 {
		return d.Authority.Execute(ctx, relay.OpActorUpdate, UpdatesPayload{Updates: remote}, nil)
	}
	return nil
}

// applyUpdatesOrWarn applies updates and surfaces failures as warnings
func (d *Deps) applyUpdatesOrWarn(ctx context.Context, updates []resources.Update, what string) {
	if err := d.applyUpdates(ctx, updates); err != nil {
		d.Logger.Warn("resource updates failed", "source", what, "error", err)
		d.warn(ctx, what+": "+err.Error())
	}
}
