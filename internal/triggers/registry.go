// Package triggers holds the trigger registry: authored commands subscribed to
// named extension points such as "after a duality roll" and run when the
// engine reaches them.
package triggers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/notify"
	"github.com/KirkDiggler/dh-automation/internal/resources"
)

var tracer = otel.Tracer("github.com/KirkDiggler/dh-automation/internal/triggers")

// ActorLookup resolves subscriber owners
type ActorLookup interface {
	Get(ctx context.Context, uuid string) (*entities.Actor, error)
}

// Entry is an installed subscription
type Entry struct {
	SubscriberUUID string
	ActorUUID      string
	Scope          Scope
	Sources        []Source
	commands       []Command
	bound          map[string]any
}

// RegistryConfig holds registry dependencies
type RegistryConfig struct {
	Actors        ActorLookup
	Notifier      notify.Notifier
	ParticipantID string
	// Enabled reports whether trigger automation is on; nil means always on
	Enabled func(ctx context.Context) bool
	Logger  *slog.Logger
}

// Registry maps trigger types to subscribers in registration order
type Registry struct {
	mu            sync.RWMutex
	subscribers   map[Type][]*Entry
	actors        ActorLookup
	notifier      notify.Notifier
	participantID string
	enabled       func(ctx context.Context) bool
	logger        *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(cfg *RegistryConfig) *Registry {
	if cfg == nil || cfg.Actors == nil {
		panic("trigger registry requires an actor lookup")
	}
	r := &Registry{
		subscribers:   make(map[Type][]*Entry),
		actors:        cfg.Actors,
		notifier:      cfg.Notifier,
		participantID: cfg.ParticipantID,
		enabled:       cfg.Enabled,
		logger:        cfg.Logger,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.notifier == nil {
		r.notifier = notify.NewSlogNotifier(r.logger)
	}
	return r
}

// Register installs subscriberUUID's commands for every trigger present in
// subs and removes its entry from every trigger that is absent. Re-registering
// replaces the earlier entry in place.
func (r *Registry) Register(subs map[Type]Subscription, actorUUID, subscriberUUID string, bound map[string]any) error {
	if subscriberUUID == "" {
		return dherr.InvalidArgumentf("subscriber UUID is required")
	}
	for t := range subs {
		if _, ok := Lookup(t); !ok {
			return dherr.Authoringf("unknown trigger %q", t)
		}
	}

	// Compile everything first so a bad command leaves the registry untouched.
	compiled := make(map[Type]*Entry, len(subs))
	for _, def := range definitions {
		sub, ok := subs[def.Type]
		if !ok {
			continue
		}
		entry := &Entry{
			SubscriberUUID: subscriberUUID,
			ActorUUID:      actorUUID,
			Scope:          sub.Scope,
			Sources:        sub.Commands,
			bound:          bound,
		}
		if entry.Scope == "" {
			entry.Scope = ScopeSelf
		}
		for i, src := range sub.Commands {
			cmd, err := Compile(src, def.Params)
			if err != nil {
				return dherr.Wrapf(err, "trigger %s command %d on %s", def.Type, i, subscriberUUID)
			}
			entry.commands = append(entry.commands, cmd)
		}
		compiled[def.Type] = entry
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, def := range definitions {
		entry, install := compiled[def.Type]
		list := r.subscribers[def.Type]
		idx := indexOf(list, subscriberUUID)

		switch {
		case install && idx >= 0:
			list[idx] = entry
		case install:
			r.subscribers[def.Type] = append(list, entry)
		case idx >= 0:
			r.subscribers[def.Type] = append(list[:idx:idx], list[idx+1:]...)
		}
	}
	return nil
}

// Unregister removes subscriberUUID from every trigger
func (r *Registry) Unregister(subscriberUUID string) {
	r.removeWhere(func(e *Entry) bool { return e.SubscriberUUID == subscriberUUID })
}

// UnregisterScene drops every subscription owned by documents in a scene
func (r *Registry) UnregisterScene(sceneUUID string) {
	r.removeWhere(func(e *Entry) bool {
		return entities.SceneScoped(e.SubscriberUUID, sceneUUID) || entities.SceneScoped(e.ActorUUID, sceneUUID)
	})
}

func (r *Registry) removeWhere(match func(*Entry) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for t, list := range r.subscribers {
		kept := list[:0:0]
		for _, e := range list {
			if !match(e) {
				kept = append(kept, e)
			}
		}
		r.subscribers[t] = kept
	}
}

// RegisterActor syncs the registry with an actor's items and enabled
// effects. Entries for embedded documents the actor no longer carries are
// dropped first.
func (r *Registry) RegisterActor(actor *entities.Actor) error {
	current := make(map[string]bool, len(actor.Items)+len(actor.Effects))
	for _, item := range actor.Items {
		current[item.UUID] = true
	}
	for _, effect := range actor.Effects {
		if !effect.Disabled {
			current[effect.UUID] = true
		}
	}
	r.removeWhere(func(e *Entry) bool {
		return e.ActorUUID == actor.UUID && e.SubscriberUUID != actor.UUID && !current[e.SubscriberUUID]
	})

	for _, id := range actor.ItemIDs() {
		item := actor.Items[id]
		if err := r.Register(subscriptionsFromSpecs(item.Triggers), actor.UUID, item.UUID, nil); err != nil {
			return err
		}
	}
	for _, id := range actor.EffectIDs() {
		effect := actor.Effects[id]
		if effect.Disabled {
			continue
		}
		if err := r.Register(subscriptionsFromSpecs(effect.Triggers), actor.UUID, effect.UUID, nil); err != nil {
			return err
		}
	}
	return nil
}

// UnregisterActor removes the triggers of an actor's items and effects
func (r *Registry) UnregisterActor(actor *entities.Actor) {
	docs := make(map[string]bool, len(actor.Items)+len(actor.Effects))
	for _, item := range actor.Items {
		docs[item.UUID] = true
	}
	for _, effect := range actor.Effects {
		docs[effect.UUID] = true
	}
	r.removeWhere(func(e *Entry) bool { return e.ActorUUID == actor.UUID || docs[e.SubscriberUUID] })
}

// UnregisterOwner removes every entry owned by actorUUID or by a document
// embedded under it. Used when the actor itself is gone.
func (r *Registry) UnregisterOwner(actorUUID string) {
	prefix := actorUUID + "."
	r.removeWhere(func(e *Entry) bool {
		return e.ActorUUID == actorUUID || strings.HasPrefix(e.SubscriberUUID, prefix)
	})
}

// subscriptionsFromSpecs groups authored specs by trigger. Specs sharing a
// trigger use the scope of the first one.
func subscriptionsFromSpecs(specs []entities.TriggerSpec) map[Type]Subscription {
	subs := make(map[Type]Subscription)
	for _, spec := range specs {
		t := Type(spec.Trigger)
		sub, ok := subs[t]
		if !ok {
			sub.Scope = Scope(spec.Scope)
		}
		sub.Commands = append(sub.Commands, Source{Language: Language(spec.Language), Code: spec.Command})
		subs[t] = sub
	}
	return subs
}

// Subscribers returns a snapshot of the entries for t
func (r *Registry) Subscribers(t Type) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.subscribers[t]))
	for _, e := range r.subscribers[t] {
		out = append(out, *e)
	}
	return out
}

// Count returns how many subscribers t has
func (r *Registry) Count(t Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[t])
}

// Run fires t for invokerUUID and collects the resource updates commands
// queue. A failing command is reported and skipped; it never aborts the run.
func (r *Registry) Run(ctx context.Context, t Type, invokerUUID string, args map[string]any) ([]resources.Update, error) {
	def, ok := Lookup(t)
	if !ok {
		return nil, dherr.InvalidArgumentf("unknown trigger %q", t)
	}
	if r.enabled != nil && !r.enabled(ctx) {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "triggers.Run")
	defer span.End()
	span.SetAttributes(attribute.String("trigger", string(t)), attribute.String("invoker", invokerUUID))

	r.mu.RLock()
	entries := append([]*Entry(nil), r.subscribers[t]...)
	r.mu.RUnlock()

	var updates []resources.Update
	fired := 0
	for _, entry := range entries {
		if !entry.Scope.Matches(entry.ActorUUID, invokerUUID) {
			continue
		}
		actor, err := r.actors.Get(ctx, entry.ActorUUID)
		if err != nil {
			r.logger.Warn("trigger owner not found", "trigger", t, "subscriber", entry.SubscriberUUID, "error", err)
			continue
		}
		if !def.Allows(actor.Type) {
			continue
		}

		for i, cmd := range entry.commands {
			call := &Call{
				Type:        t,
				OwnerUUID:   entry.ActorUUID,
				InvokerUUID: invokerUUID,
				Args:        args,
				Config:      callConfig(entry.bound, args),
			}
			if err := runSafely(ctx, cmd, call); err != nil {
				r.report(ctx, t, entry, i, err)
				continue
			}
			fired++
			updates = append(updates, call.Updates...)
		}
	}

	span.SetAttributes(attribute.Int("commands", fired), attribute.Int("updates", len(updates)))
	return updates, nil
}

func (r *Registry) report(ctx context.Context, t Type, entry *Entry, index int, err error) {
	r.logger.Error("trigger command failed",
		"trigger", t, "subscriber", entry.SubscriberUUID, "actor", entry.ActorUUID, "command", index, "error", err)
	r.notifier.Notify(ctx, r.participantID, notify.LevelError,
		fmt.Sprintf("Trigger %s on %s failed: %v", t, entry.SubscriberUUID, err))

	span := spanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, "trigger command failed")
}

// callConfig prefers the config bound at registration and falls back to the
// config the caller passed in args.
func callConfig(bound, args map[string]any) map[string]any {
	if bound != nil {
		return bound
	}
	if cfg, ok := args["config"].(map[string]any); ok {
		return cfg
	}
	return nil
}

func runSafely(ctx context.Context, cmd Command, call *Call) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("command panicked: %v", rec)
		}
	}()
	return cmd.Run(ctx, call)
}

func indexOf(list []*Entry, subscriberUUID string) int {
	for i, e := range list {
		if e.SubscriberUUID == subscriberUUID {
			return i
		}
	}
	return -1
}
