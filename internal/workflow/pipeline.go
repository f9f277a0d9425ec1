// Package workflow runs item actions as an ordered pipeline of stages that
// build and consume one shared config: roll, target, save, damage, macro,
// summon, beastform, effects, countdown and cost.
package workflow

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/formula"
	"github.com/KirkDiggler/dh-automation/internal/relay"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

var tracer = otel.Tracer("github.com/KirkDiggler/dh-automation/internal/workflow")

// Request starts an action
type Request struct {
	ActorUUID string
	ItemRef   string
	ActionID  string
	// Targets are explicit target actor uuids; empty falls back to the
	// participant's live selection.
	Targets []string
	// Scale is the chosen scale per cost resource key
	Scale     map[string]int
	Configure bool
}

// ReinvokeRequest re-runs a deferred stage from a stored message
type ReinvokeRequest struct {
	MessageID string
	Stage     string
	// Targets limits the stage to these target actor uuids; empty means all
	Targets []string
}

func (r *ReinvokeRequest) includes(actorUUID string) bool {
	if r == nil || len(r.Targets) == 0 {
		return true
	}
	for _, t := range r.Targets {
		if t == actorUUID {
			return true
		}
	}
	return false
}

// Run is one invocation of an action
type Run struct {
	ID            string
	ParticipantID string
	Actor         *entities.Actor
	Item          *entities.Item
	Action        *entities.Action
	Request       *Request
	Config        *Config
}

// Vars are the formula variables of the acting actor
func (r *Run) Vars() formula.Vars {
	return formula.Vars(r.Actor.RollData())
}

// Outcome reports how a run ended
type Outcome struct {
	RunID     string
	MessageID string
	Completed bool
	// AbortedBy names the stage that stopped the run
	AbortedBy string
	Config    *Config
}

// PipelineConfig holds pipeline dependencies. Stages defaults to every
// built-in stage.
type PipelineConfig struct {
	Deps   *Deps
	Stages []Stage
}

// Pipeline runs actions through its registered stages
type Pipeline struct {
	mu     sync.RWMutex
	deps   *Deps
	stages []Stage
}

// NewPipeline creates a pipeline
func NewPipeline(cfg *PipelineConfig) *Pipeline {
	if cfg == nil || cfg.Deps == nil || cfg.Deps.Actors == nil {
		panic("pipeline requires deps with an actor repository")
	}
	cfg.Deps.setDefaults()

	p := &Pipeline{deps: cfg.Deps}
	stages := cfg.Stages
	if stages == nil {
		stages = DefaultStages(cfg.Deps)
	}
	for _, stage := range stages {
		p.Register(stage)
	}
	return p
}

// DefaultStages returns the built-in stages
func DefaultStages(deps *Deps) []Stage {
	return []Stage{
		&RollStage{deps: deps},
		&TargetStage{deps: deps},
		&SaveStage{deps: deps},
		&DamageStage{deps: deps},
		&MacroStage{deps: deps},
		&SummonStage{deps: deps},
		&BeastformStage{deps: deps},
		&EffectsStage{deps: deps},
		&CountdownStage{deps: deps},
		&CostStage{deps: deps},
	}
}

// Register adds a stage. Stages run by priority, then registration order.
func (p *Pipeline) Register(stage Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stages = append(p.stages, stage)
	sort.SliceStable(p.stages, func(i, j int) bool {
		return p.stages[i].Priority() < p.stages[j].Priority()
	})
}

// Stages returns the stages in run order
func (p *Pipeline) Stages() []Stage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Stage(nil), p.stages...)
}

// Use runs an action. Every stage prepares before any executes; a stage that
// declines to prepare aborts the action with nothing persisted.
func (p *Pipeline) Use(ctx context.Context, req *Request) (*Outcome, error) {
	if req == nil {
		return nil, dherr.InvalidArgumentf("request cannot be nil")
	}

	ctx, span := tracer.Start(ctx, "workflow.Use", trace.WithAttributes(
		attribute.String("actor", req.ActorUUID),
		attribute.String("item", req.ItemRef),
		attribute.String("action", req.ActionID),
	))
	defer span.End()

	run, err := p.newRun(ctx, req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	logger := p.deps.Logger.With("run", run.ID, "actor", run.Actor.UUID, "action", run.Action.ID)
	outcome := &Outcome{RunID: run.ID, Config: run.Config}
	stages := p.Stages()

	for _, stage := range stages {
		ok, err := p.step(ctx, stage, "prepare", func(ctx context.Context) (bool, error) {
			return stage.Prepare(ctx, run)
		})
		if err != nil {
			logger.Error("stage prepare failed", "stage", stage.Name(), "error", err)
			p.deps.fail(ctx, err.Error())
			recordError(span, err)
			return nil, err
		}
		if !ok {
			logger.Info("action aborted", "stage", stage.Name(), "phase", "prepare")
			outcome.AbortedBy = stage.Name()
			return outcome, nil
		}
	}

	for _, stage := range stages {
		ok, err := p.step(ctx, stage, "execute", func(ctx context.Context) (bool, error) {
			return stage.Execute(ctx, run)
		})
		if err != nil {
			logger.Error("stage execute failed", "stage", stage.Name(), "error", err)
			p.deps.fail(ctx, err.Error())
			recordError(span, err)
			return nil, err
		}
		if !ok {
			logger.Info("action canceled", "stage", stage.Name(), "phase", "execute")
			outcome.AbortedBy = stage.Name()
			return outcome, nil
		}
	}

	if err := p.saveMessage(ctx, run); err != nil {
		recordError(span, err)
		return nil, err
	}
	outcome.MessageID = run.ID
	outcome.Completed = true
	logger.Info("action completed", "roll", run.Config.Roll != nil, "targets", len(run.Config.Targets))
	return outcome, nil
}

// Reinvoke re-runs a deferred stage against a stored message and writes the
// updated config back.
func (p *Pipeline) Reinvoke(ctx context.Context, req *ReinvokeRequest) (*Config, error) {
	if req == nil || req.MessageID == "" {
		return nil, dherr.InvalidArgumentf("message id is required")
	}
	if p.deps.Messages == nil {
		return nil, dherr.Internalf("no message store configured")
	}

	ctx, span := tracer.Start(ctx, "workflow.Reinvoke", trace.WithAttributes(
		attribute.String("message", req.MessageID),
		attribute.String("stage", req.Stage),
	))
	defer span.End()

	var deferred Deferred
	for _, stage := range p.Stages() {
		if stage.Name() != req.Stage {
			continue
		}
		d, ok := stage.(Deferred)
		if !ok {
			return nil, dherr.InvalidArgumentf("stage %s cannot be re-invoked", req.Stage)
		}
		deferred = d
	}
	if deferred == nil {
		return nil, dherr.NotFoundf("stage %s not registered", req.Stage)
	}

	msg, err := p.deps.Messages.Get(ctx, req.MessageID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	cfg, err := decodeConfig(msg.Config)
	if err != nil {
		return nil, dherr.Wrapf(err, "message %s has an unreadable config", msg.ID)
	}
	run, err := p.loadRun(ctx, msg.ActorUUID, msg.ItemUUID, msg.ActionID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	run.ID = msg.ID
	run.Config = cfg

	if err := deferred.Reinvoke(ctx, run, req); err != nil {
		p.deps.Logger.Error("stage reinvoke failed", "stage", req.Stage, "message", msg.ID, "error", err)
		recordError(span, err)
		return nil, err
	}

	if err := p.updateMessage(ctx, msg, cfg); err != nil {
		recordError(span, err)
		return nil, err
	}
	return cfg, nil
}

func (p *Pipeline) step(ctx context.Context, stage Stage, phase string, fn func(context.Context) (bool, error)) (bool, error) {
	ctx, span := tracer.Start(ctx, "workflow."+stage.Name()+"."+phase)
	defer span.End()

	ok, err := fn(ctx)
	span.SetAttributes(attribute.Bool("continue", ok))
	if err != nil {
		recordError(span, err)
	}
	return ok, err
}

func (p *Pipeline) newRun(ctx context.Context, req *Request) (*Run, error) {
	run, err := p.loadRun(ctx, req.ActorUUID, req.ItemRef, req.ActionID)
	if err != nil {
		return nil, err
	}
	run.ID = p.deps.UUIDGenerator.New()
	run.Request = req
	run.Config = &Config{
		ActionType: run.Action.Type,
		Dialog:     Dialog{Configure: req.Configure},
		Data:       map[string]any{},
	}
	return run, nil
}

func (p *Pipeline) loadRun(ctx context.Context, actorUUID, itemRef, actionID string) (*Run, error) {
	actor, err := p.deps.Actors.Get(ctx, actorUUID)
	if err != nil {
		return nil, err
	}
	item, ok := actor.Item(itemRef)
	if !ok {
		return nil, dherr.NotFoundf("item %s not found on %s", itemRef, actorUUID)
	}
	action, ok := item.Action(actionID)
	if !ok {
		return nil, dherr.NotFoundf("action %s not found on %s", actionID, item.UUID)
	}
	return &Run{
		ParticipantID: p.deps.ParticipantID,
		Actor:         actor,
		Item:          item,
		Action:        action,
		Request:       &Request{ActorUUID: actorUUID, ItemRef: itemRef, ActionID: actionID},
	}, nil
}

func (p *Pipeline) saveMessage(ctx context.Context, run *Run) error {
	if p.deps.Messages == nil {
		return nil
	}
	raw, err := json.Marshal(run.Config)
	if err != nil {
		return dherr.Wrap(err, "failed to encode workflow config")
	}
	return p.deps.Messages.Create(ctx, &entities.Message{
		ID:        run.ID,
		ActorUUID: run.Actor.UUID,
		ItemUUID:  run.Item.UUID,
		ActionID:  run.Action.ID,
		AuthorID:  run.ParticipantID,
		Config:    raw,
		CreatedAt: time.Now().UTC(),
	})
}

// updateMessage writes cfg back. Participants other than the author go
// through the authoritative participant.
func (p *Pipeline) updateMessage(ctx context.Context, msg *entities.Message, cfg *Config) error {
	if msg.AuthorID == p.deps.ParticipantID || p.deps.Authority == nil || p.deps.isAuthority(ctx) {
		_, err := p.deps.Messages.Update(ctx, msg.ID, patch.New().Set("config", cfg))
		return err
	}
	return p.deps.Authority.Execute(ctx, relay.OpMessageUpdate, MessagePayload{MessageID: msg.ID, Config: cfg}, nil)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
