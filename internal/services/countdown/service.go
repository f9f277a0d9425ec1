// Package countdown creates and advances campaign countdowns. Countdowns are
// campaign-global, so every mutation runs on the authoritative participant.
package countdown

//go:generate mockgen -destination=mock/mock_service.go -package=mockcountdown -source=service.go

import (
	"context"
	"log/slog"
	"sort"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/formula"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/campaigns"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
	"github.com/KirkDiggler/dh-automation/internal/uuid"
)

// Service defines the countdown service interface
type Service interface {
	// Create rolls the countdown size and creates it with Current = Max
	Create(ctx context.Context, input *CreateInput) (*entities.Countdown, error)

	// Advance shifts a countdown's current progress by delta
	Advance(ctx context.Context, id string, delta int) (*entities.Countdown, error)

	// List returns the campaign's countdowns
	List(ctx context.Context) ([]*entities.Countdown, error)

	// RegisterHandlers installs the authoritative side of the relay operations
	RegisterHandlers(registrar Registrar)
}

// Authority is the slice of the relay the service needs
type Authority interface {
	HasAuthority(ctx context.Context) bool
	Execute(ctx context.Context, operation string, payload any, result any) error
}

// Registrar accepts relay handlers
type Registrar interface {
	Register(operation string, handler relay.Handler)
}

// CreateInput describes a countdown to create
type CreateInput struct {
	Def  entities.CountdownDef
	Vars formula.Vars
}

// CreatePayload is the countdown.create request
type CreatePayload struct {
	CampaignID string              `json:"campaignId"`
	Countdown  *entities.Countdown `json:"countdown"`
}

// UpdatePayload is the countdown.update request
type UpdatePayload struct {
	CampaignID string `json:"campaignId"`
	ID         string `json:"id"`
	Delta      int    `json:"delta"`
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Campaigns     campaigns.Repository // Required
	Authority     Authority            // Required
	Roller        dice.Roller          // Required
	CampaignID    string               // Required
	UUIDGenerator uuid.Generator       // Optional, will use default if nil
	Logger        *slog.Logger
}

type service struct {
	campaigns     campaigns.Repository
	authority     Authority
	roller        dice.Roller
	campaignID    string
	uuidGenerator uuid.Generator
	logger        *slog.Logger
}

// NewService creates a new countdown service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Campaigns == nil {
		panic("campaign repository is required")
	}
	if cfg.Authority == nil {
		panic("authority is required")
	}
	if cfg.Roller == nil {
		panic("roller is required")
	}

	svc := &service{
		campaigns:     cfg.Campaigns,
		authority:     cfg.Authority,
		roller:        cfg.Roller,
		campaignID:    cfg.CampaignID,
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

func (s *service) Create(ctx context.Context, input *CreateInput) (*entities.Countdown, error) {
	if input == nil {
		return nil, dherr.InvalidArgumentf("input cannot be nil")
	}
	// Refuse before rolling so nothing is spent on a request that cannot land.
	if !s.authority.HasAuthority(ctx) {
		return nil, dherr.Unavailable("a game master must be online to create countdowns").
			WithMeta("operation", relay.OpCountdownCreate)
	}

	def := input.Def
	if def.Formula == "" {
		return nil, dherr.Authoringf("countdown %q has no formula", def.Name)
	}
	result, err := formula.Evaluate(def.Formula, s.roller, input.Vars)
	if err != nil {
		return nil, err
	}
	size := result.Total
	if size < 1 {
		size = 1
	}

	cdType := def.Type
	if cdType == "" {
		cdType = entities.CountdownNarrative
	}
	countdown := &entities.Countdown{
		ID:               s.uuidGenerator.New(),
		Name:             def.Name,
		Type:             cdType,
		Progress:         entities.Progress{Current: size, Max: size},
		DefaultOwnership: def.DefaultOwnership,
	}

	var created entities.Countdown
	if err := s.authority.Execute(ctx, relay.OpCountdownCreate, CreatePayload{
		CampaignID: s.campaignID,
		Countdown:  countdown,
	}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) Advance(ctx context.Context, id string, delta int) (*entities.Countdown, error) {
	if id == "" {
		return nil, dherr.InvalidArgumentf("countdown id is required")
	}
	var updated entities.Countdown
	if err := s.authority.Execute(ctx, relay.OpCountdownUpdate, UpdatePayload{
		CampaignID: s.campaignID,
		ID:         id,
		Delta:      delta,
	}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) List(ctx context.Context) ([]*entities.Countdown, error) {
	campaign, err := s.campaigns.Get(ctx, s.campaignID)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Countdown, 0, len(campaign.Countdowns))
	for _, cd := range campaign.Countdowns {
		out = append(out, cd)
	}
	sortCountdowns(out)
	return out, nil
}

func (s *service) RegisterHandlers(registrar Registrar) {
	registrar.Register(relay.OpCountdownCreate, s.handleCreate)
	registrar.Register(relay.OpCountdownUpdate, s.handleUpdate)
}

func (s *service) handleCreate(ctx context.Context, req relay.Request) (any, error) {
	var payload CreatePayload
	if err := req.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Countdown == nil || payload.Countdown.ID == "" {
		return nil, dherr.InvalidArgumentf("countdown is required")
	}
	campaignID := s.resolveCampaign(payload.CampaignID)

	updated, err := s.campaigns.Update(ctx, campaignID,
		patch.New().Set("countdowns."+payload.Countdown.ID, payload.Countdown))
	if err != nil {
		return nil, dherr.Wrapf(err, "failed to create countdown %s", payload.Countdown.Name)
	}

	s.logger.Info("countdown created", "campaign", campaignID, "countdown", payload.Countdown.ID,
		"name", payload.Countdown.Name, "max", payload.Countdown.Progress.Max, "sender", req.SenderID)
	return updated.Countdowns[payload.Countdown.ID], nil
}

func (s *service) handleUpdate(ctx context.Context, req relay.Request) (any, error) {
	var payload UpdatePayload
	if err := req.Decode(&payload); err != nil {
		return nil, err
	}
	campaignID := s.resolveCampaign(payload.CampaignID)

	campaign, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	current, ok := campaign.Countdowns[payload.ID]
	if !ok {
		return nil, dherr.NotFoundf("countdown %s not found", payload.ID)
	}

	updated, err := s.campaigns.Update(ctx, campaignID,
		patch.New().Set("countdowns."+payload.ID+".progress.current", current.Progress.Current+payload.Delta))
	if err != nil {
		return nil, dherr.Wrapf(err, "failed to update countdown %s", payload.ID)
	}

	cd := updated.Countdowns[payload.ID]
	s.logger.Info("countdown advanced", "campaign", campaignID, "countdown", payload.ID,
		"delta", payload.Delta, "current", cd.Progress.Current)
	return cd, nil
}

func (s *service) resolveCampaign(id string) string {
	if id == "" {
		return s.campaignID
	}
	return id
}

func sortCountdowns(cds []*entities.Countdown) {
	sort.Slice(cds, func(i, j int) bool {
		if cds[i].Name != cds[j].Name {
			return cds[i].Name < cds[j].Name
		}
		return cds[i].ID < cds[j].ID
	})
}
