package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/notify"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/actors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/campaigns"
	"github.com/KirkDiggler/dh-automation/internal/repositories/messages"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	tablerepo "github.com/KirkDiggler/dh-automation/internal/repositories/tables"
	"github.com/KirkDiggler/dh-automation/internal/resources"
	"github.com/KirkDiggler/dh-automation/internal/services/beastform"
	"github.com/KirkDiggler/dh-automation/internal/services/countdown"
	"github.com/KirkDiggler/dh-automation/internal/tables"
	"github.com/KirkDiggler/dh-automation/internal/triggers"
	"github.com/KirkDiggler/dh-automation/internal/uuid"
	"github.com/KirkDiggler/dh-automation/internal/workflow"
)

// Provider is the world context one participant runs: repositories, the
// relay, and every engine service built on them.
type Provider struct {
	Actors    actors.Repository
	Campaigns campaigns.Repository
	Messages  messages.Repository
	Tables    tablerepo.Repository

	Relay      *relay.Relay
	Ledger     *resources.Ledger
	Triggers   *triggers.Registry
	Countdowns countdown.Service
	Beastform  beastform.Service
	Pipeline   *workflow.Pipeline
	Drawer     *tables.Drawer

	campaignID string
	automation entities.Automation
	logger     *slog.Logger
}

// ProviderConfig holds configuration for creating the world.
// A nil RedisClient keeps everything in memory; Presence and Transport then
// default to process-local implementations.
type ProviderConfig struct {
	RedisClient  redis.UniversalClient
	CampaignID   string
	Participant  relay.Participant
	Presence     relay.Presence
	Transport    relay.Transport
	RelayTimeout time.Duration
	// Repositories override the defaults, e.g. to share in-memory state
	Actors    actors.Repository
	Campaigns campaigns.Repository
	Messages  messages.Repository
	Tables    tablerepo.Repository
	// Automation seeds a campaign that does not exist yet
	Automation entities.Automation

	Roller        dice.Roller
	Notifier      notify.Notifier
	UUIDGenerator uuid.Generator
	Prompter      workflow.Prompter
	Selector      workflow.Selector
	Placer        workflow.Placer
	Macros        workflow.MacroLibrary
	Logger        *slog.Logger
}

// NewProvider creates the world with all services initialized
func NewProvider(cfg *ProviderConfig) (*Provider, error) {
	if cfg == nil {
		return nil, dherr.InvalidArgumentf("provider config cannot be nil")
	}
	if cfg.CampaignID == "" {
		return nil, dherr.InvalidArgumentf("campaign ID is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ids := cfg.UUIDGenerator
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}
	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewSlogNotifier(logger)
	}

	p := &Provider{
		campaignID: cfg.CampaignID,
		automation: cfg.Automation,
		logger:     logger,
	}

	// Use in-memory repositories if no client provided
	presence, transport := cfg.Presence, cfg.Transport
	if cfg.RedisClient != nil {
		p.Actors = actors.NewRedis(cfg.RedisClient)
		p.Campaigns = campaigns.NewRedis(cfg.RedisClient)
		p.Messages = messages.NewRedis(cfg.RedisClient)
		p.Tables = tablerepo.NewRedis(cfg.RedisClient)
		if presence == nil {
			presence = relay.NewRedisPresence(cfg.RedisClient, cfg.CampaignID)
		}
		if transport == nil {
			transport = relay.NewRedisTransport(cfg.RedisClient, cfg.CampaignID, logger)
		}
	} else {
		p.Actors = actors.NewInMemoryRepository()
		p.Campaigns = campaigns.NewInMemoryRepository()
		p.Messages = messages.NewInMemoryRepository()
		p.Tables = tablerepo.NewInMemoryRepository()
		if presence == nil {
			presence = relay.NewMemoryPresence()
		}
		if transport == nil {
			transport = relay.NewHub(logger)
		}
	}
	if cfg.Actors != nil {
		p.Actors = cfg.Actors
	}
	if cfg.Campaigns != nil {
		p.Campaigns = cfg.Campaigns
	}
	if cfg.Messages != nil {
		p.Messages = cfg.Messages
	}
	if cfg.Tables != nil {
		p.Tables = cfg.Tables
	}

	r, err := relay.New(&relay.Config{
		Self:          cfg.Participant,
		Presence:      presence,
		Transport:     transport,
		UUIDGenerator: ids,
		Timeout:       cfg.RelayTimeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	p.Relay = r

	p.Ledger = resources.NewLedger(&resources.LedgerConfig{
		Actors:     p.Actors,
		Campaigns:  p.Campaigns,
		Authority:  r,
		CampaignID: cfg.CampaignID,
		Logger:     logger,
	})

	p.Triggers = triggers.NewRegistry(&triggers.RegistryConfig{
		Actors:        p.Actors,
		Notifier:      notifier,
		ParticipantID: cfg.Participant.ID,
		Enabled:       p.triggersEnabled,
		Logger:        logger,
	})

	p.Countdowns = countdown.NewService(&countdown.ServiceConfig{
		Campaigns:     p.Campaigns,
		Authority:     r,
		Roller:        roller,
		CampaignID:    cfg.CampaignID,
		UUIDGenerator: ids,
		Logger:        logger,
	})

	p.Beastform = beastform.NewService(&beastform.ServiceConfig{
		Actors:        p.Actors,
		Triggers:      p.Triggers,
		UUIDGenerator: ids,
		Logger:        logger,
	})

	p.Pipeline = workflow.NewPipeline(&workflow.PipelineConfig{
		Deps: &workflow.Deps{
			Actors:        p.Actors,
			Messages:      p.Messages,
			Campaigns:     p.Campaigns,
			CampaignID:    cfg.CampaignID,
			Ledger:        p.Ledger,
			Triggers:      p.Triggers,
			Authority:     r,
			Roller:        roller,
			Notifier:      notifier,
			Prompter:      cfg.Prompter,
			Selector:      cfg.Selector,
			Placer:        cfg.Placer,
			Macros:        cfg.Macros,
			Beastform:     p.Beastform,
			Countdowns:    p.Countdowns,
			UUIDGenerator: ids,
			ParticipantID: cfg.Participant.ID,
			Logger:        logger,
		},
	})

	p.Drawer = tables.NewDrawer(&tables.DrawerConfig{
		Tables:    p.Tables,
		Roller:    roller,
		Authority: r,
		Logger:    logger,
	})

	// Every participant installs the handlers; only the active GM runs them.
	r.Register(relay.OpFearUpdate, p.Ledger.FearHandler())
	r.Register(relay.OpTableDraw, p.Drawer.Handler())
	p.Countdowns.RegisterHandlers(r)
	p.Pipeline.RegisterHandlers(r)
	r.OnRefresh(p.onRefresh)

	return p, nil
}

// Start makes sure the campaign exists and joins the relay
func (p *Provider) Start(ctx context.Context) error {
	if _, err := p.Campaigns.Get(ctx, p.campaignID); err != nil {
		if !dherr.IsNotFound(err) {
			return err
		}
		campaign := entities.NewCampaign(p.campaignID)
		campaign.Automation = p.automation
		if err := p.Campaigns.Create(ctx, campaign); err != nil && !dherr.Is(err, dherr.CodeAlreadyExists) {
			return err
		}
		p.logger.Info("campaign created", "campaign", p.campaignID)
	}
	return p.Relay.Start(ctx)
}

// Stop leaves the relay
func (p *Provider) Stop(ctx context.Context) error {
	return p.Relay.Stop(ctx)
}

// LoadScene registers the triggers of every actor on a scene
func (p *Provider) LoadScene(ctx context.Context, actorUUIDs []string) error {
	loaded, err := p.Actors.ListByUUIDs(ctx, actorUUIDs)
	if err != nil {
		return err
	}
	for _, actor := range loaded {
		if err := p.Triggers.RegisterActor(actor); err != nil {
			return dherr.Wrapf(err, "failed to register triggers for %s", actor.UUID)
		}
	}
	p.logger.Info("scene loaded", "actors", len(loaded), "subscribers", p.subscriberCount())
	return nil
}

// UnloadScene drops the subscriptions of a scene's synthetic actors and
// embedded documents.
func (p *Provider) UnloadScene(sceneUUID string) {
	p.Triggers.UnregisterScene(sceneUUID)
}

// DeleteActor removes an actor and every trigger its documents installed
func (p *Provider) DeleteActor(ctx context.Context, actorUUID string) error {
	if err := p.Actors.Delete(ctx, actorUUID); err != nil {
		return err
	}
	p.Triggers.UnregisterOwner(actorUUID)
	p.Relay.Refresh(ctx, relay.OpActorChanged, relay.ActorRef{ActorUUID: actorUUID})
	return nil
}

// DeleteDocument removes an embedded item or effect from an actor and drops
// its triggers. ref is the item or effect id or UUID.
func (p *Provider) DeleteDocument(ctx context.Context, actorUUID, ref string) error {
	actor, err := p.Actors.Get(ctx, actorUUID)
	if err != nil {
		return err
	}

	field, id, ok := embeddedKey(actor, ref)
	if !ok {
		return dherr.NotFoundf("%s has no item or effect %s", actorUUID, ref)
	}

	updated, err := p.Actors.Update(ctx, actorUUID, patch.New().Remove(field, id))
	if err != nil {
		return err
	}
	if err := p.Triggers.RegisterActor(updated); err != nil {
		return err
	}
	p.Relay.Refresh(ctx, relay.OpActorChanged, relay.ActorRef{ActorUUID: actorUUID})
	return nil
}

// onRefresh keeps the local registry in step with documents changed by
// other participants.
func (p *Provider) onRefresh(operation string, payload json.RawMessage) {
	if operation != relay.OpActorChanged {
		return
	}
	var ref relay.ActorRef
	if err := json.Unmarshal(payload, &ref); err != nil || ref.ActorUUID == "" {
		p.logger.Warn("malformed actor refresh", "error", err)
		return
	}

	ctx := context.Background()
	actor, err := p.Actors.Get(ctx, ref.ActorUUID)
	if dherr.IsNotFound(err) {
		p.Triggers.UnregisterOwner(ref.ActorUUID)
		return
	}
	if err != nil {
		p.logger.Warn("failed to reload refreshed actor", "actor", ref.ActorUUID, "error", err)
		return
	}
	if err := p.Triggers.RegisterActor(actor); err != nil {
		p.logger.Warn("failed to re-register actor triggers", "actor", ref.ActorUUID, "error", err)
		return
	}
	p.logger.Debug("actor triggers refreshed", "actor", ref.ActorUUID)
}

// embeddedKey finds the map field and key holding ref on actor
func embeddedKey(actor *entities.Actor, ref string) (field, id string, ok bool) {
	for id, item := range actor.Items {
		if id == ref || item.UUID == ref {
			return "items", id, true
		}
	}
	for id, effect := range actor.Effects {
		if id == ref || effect.UUID == ref {
			return "effects", id, true
		}
	}
	return "", "", false
}

func (p *Provider) triggersEnabled(ctx context.Context) bool {
	campaign, err := p.Campaigns.Get(ctx, p.campaignID)
	if err != nil {
		p.logger.Warn("campaign lookup failed", "campaign", p.campaignID, "error", err)
		return false
	}
	return campaign.Automation.Triggers
}

func (p *Provider) subscriberCount() int {
	n := 0
	for _, def := range triggers.Definitions() {
		n += p.Triggers.Count(def.Type)
	}
	return n
}
