// Package relay routes state-changing operations to the single authoritative
// participant (the active GM) and broadcasts refresh notifications.
//
// The active GM runs an operation in place. Anyone else publishes a request
// envelope and waits for the completion envelope with the same ID. With no GM
// online the operation is refused with CodeUnavailable and never queued.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/uuid"
)

// Operations relayed to the authoritative participant
const (
	OpFearUpdate      = "fear.update"
	OpCountdownCreate = "countdown.create"
	OpCountdownUpdate = "countdown.update"
	OpEffectsApply    = "effects.apply"
	OpActorDamage     = "actor.damage"
	OpActorUpdate     = "actor.update"
	OpMessageUpdate   = "message.update"
	OpTableDraw       = "table.draw"

	// OpActorChanged is refresh-only: an actor's embedded documents changed
	OpActorChanged = "actor.changed"
)

// ActorRef is the payload of actor.changed
type ActorRef struct {
	ActorUUID string `json:"actorUuid"`
}

// DefaultTimeout bounds how long a non-authoritative initiator waits
const DefaultTimeout = 10 * time.Second

// Request is what a handler receives
type Request struct {
	Operation string
	SenderID  string
	Payload   json.RawMessage
}

// Decode unmarshals the payload into v
func (r Request) Decode(v any) error {
	if len(r.Payload) == 0 {
		return dherr.InvalidArgumentf("operation %s has no payload", r.Operation)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return dherr.WrapWithCode(err, dherr.CodeInvalidArgument, fmt.Sprintf("malformed payload for %s", r.Operation))
	}
	return nil
}

// Handler runs an operation on the authoritative participant. The returned
// value is marshaled back to the initiator.
type Handler func(ctx context.Context, req Request) (any, error)

// RefreshListener observes refresh broadcasts
type RefreshListener func(operation string, payload json.RawMessage)

// Config holds relay dependencies
type Config struct {
	Self          Participant
	Presence      Presence
	Transport     Transport
	UUIDGenerator uuid.Generator
	Timeout       time.Duration
	Logger        *slog.Logger
}

// Relay is one participant's view of the authoritative channel
type Relay struct {
	self      Participant
	presence  Presence
	transport Transport
	ids       uuid.Generator
	timeout   time.Duration
	logger    *slog.Logger

	mu          sync.RWMutex
	handlers    map[string]Handler
	pending     map[string]chan Envelope
	refreshers  []RefreshListener
	unsubscribe func()
}

// New creates a relay
func New(cfg *Config) (*Relay, error) {
	if cfg == nil {
		return nil, dherr.InvalidArgumentf("relay config cannot be nil")
	}
	if cfg.Self.ID == "" {
		return nil, dherr.InvalidArgumentf("relay participant ID is required")
	}
	if cfg.Presence == nil || cfg.Transport == nil {
		return nil, dherr.InvalidArgumentf("relay requires presence and transport")
	}

	r := &Relay{
		self:      cfg.Self,
		presence:  cfg.Presence,
		transport: cfg.Transport,
		ids:       cfg.UUIDGenerator,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
		handlers:  make(map[string]Handler),
		pending:   make(map[string]chan Envelope),
	}
	if r.ids == nil {
		r.ids = uuid.NewGoogleUUIDGenerator()
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("participant", r.self.ID)
	return r, nil
}

// Self returns the local participant
func (r *Relay) Self() Participant {
	return r.self
}

// Register installs the handler for an operation
func (r *Relay) Register(operation string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = handler
}

// OnRefresh adds a refresh listener
func (r *Relay) OnRefresh(listener RefreshListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshers = append(r.refreshers, listener)
}

// Start joins presence and begins consuming relay traffic
func (r *Relay) Start(ctx context.Context) error {
	unsubscribe, err := r.transport.Subscribe(ctx, r.self.ID, r.receive)
	if err != nil {
		return dherr.Wrap(err, "failed to subscribe to relay transport")
	}
	if err := r.presence.Join(ctx, r.self); err != nil {
		unsubscribe()
		return dherr.Wrap(err, "failed to join presence")
	}

	r.mu.Lock()
	r.unsubscribe = unsubscribe
	r.mu.Unlock()

	r.logger.Info("relay started", "role", r.self.Role)
	return nil
}

// Stop leaves presence and stops consuming traffic
func (r *Relay) Stop(ctx context.Context) error {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return r.presence.Leave(ctx, r.self.ID)
}

// ActiveGM returns the authoritative participant, if any
func (r *Relay) ActiveGM(ctx context.Context) (*Participant, error) {
	participants, err := r.presence.List(ctx)
	if err != nil {
		return nil, dherr.Wrap(err, "failed to list participants")
	}
	return ActiveGM(participants), nil
}

// HasAuthority reports whether any authoritative participant is online
func (r *Relay) HasAuthority(ctx context.Context) bool {
	gm, err := r.ActiveGM(ctx)
	if err != nil {
		r.logger.Warn("presence lookup failed", "error", err)
		return false
	}
	return gm != nil
}

// IsAuthority reports whether the local participant is the active GM
func (r *Relay) IsAuthority(ctx context.Context) bool {
	gm, err := r.ActiveGM(ctx)
	if err != nil {
		r.logger.Warn("presence lookup failed", "error", err)
		return false
	}
	return gm != nil && gm.ID == r.self.ID
}

// Execute runs operation on the authoritative participant and decodes its
// result into result (which may be nil).
func (r *Relay) Execute(ctx context.Context, operation string, payload any, result any) error {
	gm, err := r.ActiveGM(ctx)
	if err != nil {
		return err
	}
	if gm == nil {
		return dherr.Unavailable(fmt.Sprintf("no game master is online to perform %s", operation)).
			WithMeta("operation", operation)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return dherr.Wrapf(err, "failed to marshal payload for %s", operation)
	}

	if gm.ID == r.self.ID {
		out, err := r.runLocal(ctx, Request{Operation: operation, SenderID: r.self.ID, Payload: raw})
		if err != nil {
			return err
		}
		r.broadcastCompletion(ctx, operation, out)
		return decodeResult(out, result)
	}

	return r.forward(ctx, gm.ID, operation, raw, result)
}

// Refresh broadcasts a best-effort notification; failures are only logged
func (r *Relay) Refresh(ctx context.Context, operation string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.logger.Warn("failed to marshal refresh", "operation", operation, "error", err)
		return
	}
	env := Envelope{
		ID:        r.ids.New(),
		Kind:      KindRefresh,
		Operation: operation,
		SenderID:  r.self.ID,
		Payload:   raw,
	}
	if err := r.transport.Publish(ctx, env); err != nil {
		r.logger.Warn("refresh broadcast failed", "operation", operation, "error", err)
	}
}

func (r *Relay) forward(ctx context.Context, gmID, operation string, payload json.RawMessage, result any) error {
	id := r.ids.New()
	wait := make(chan Envelope, 1)

	r.mu.Lock()
	r.pending[id] = wait
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	env := Envelope{
		ID:        id,
		Kind:      KindRequest,
		Operation: operation,
		SenderID:  r.self.ID,
		TargetID:  gmID,
		Payload:   payload,
	}
	r.logger.Debug("forwarding operation", "operation", operation, "id", id, "gm", gmID)
	if err := r.transport.Publish(ctx, env); err != nil {
		return dherr.Wrapf(err, "failed to send %s", operation)
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case done := <-wait:
		if done.Error != nil {
			return done.Error.toError()
		}
		return decodeResult(done.Payload, result)
	case <-timer.C:
		return dherr.Unavailable(fmt.Sprintf("timed out waiting for the game master to perform %s", operation)).
			WithMeta("operation", operation)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) runLocal(ctx context.Context, req Request) (json.RawMessage, error) {
	r.mu.RLock()
	handler, ok := r.handlers[req.Operation]
	r.mu.RUnlock()
	if !ok {
		return nil, dherr.NotFoundf("no handler registered for %s", req.Operation)
	}

	out, err := handler(ctx, req)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, dherr.Wrapf(err, "failed to marshal %s result", req.Operation)
	}
	return raw, nil
}

// receive handles transport traffic
func (r *Relay) receive(env Envelope) {
	if env.SenderID == r.self.ID && env.Kind != KindComplete {
		return
	}

	switch env.Kind {
	case KindRequest:
		if env.TargetID != r.self.ID {
			return
		}
		r.serve(env)
	case KindComplete:
		r.mu.RLock()
		wait, ok := r.pending[env.ID]
		r.mu.RUnlock()
		if ok {
			select {
			case wait <- env:
			default:
			}
		}
		if env.SenderID != r.self.ID {
			r.notifyRefresh(env.Operation, env.Payload)
		}
	case KindRefresh:
		r.notifyRefresh(env.Operation, env.Payload)
	}
}

func (r *Relay) serve(env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	out, err := r.runLocal(ctx, Request{Operation: env.Operation, SenderID: env.SenderID, Payload: env.Payload})
	if err != nil {
		r.logger.Warn("relayed operation failed", "operation", env.Operation, "sender", env.SenderID, "error", err)
	}

	reply := Envelope{
		ID:        env.ID,
		Kind:      KindComplete,
		Operation: env.Operation,
		SenderID:  r.self.ID,
		Payload:   out,
		Error:     toEnvelopeError(err),
	}
	if err := r.transport.Publish(ctx, reply); err != nil {
		r.logger.Error("failed to publish completion", "operation", env.Operation, "id", env.ID, "error", err)
	}
}

func (r *Relay) broadcastCompletion(ctx context.Context, operation string, out json.RawMessage) {
	env := Envelope{
		ID:        r.ids.New(),
		Kind:      KindComplete,
		Operation: operation,
		SenderID:  r.self.ID,
		Payload:   out,
	}
	if err := r.transport.Publish(ctx, env); err != nil {
		r.logger.Warn("completion broadcast failed", "operation", operation, "error", err)
	}
}

func (r *Relay) notifyRefresh(operation string, payload json.RawMessage) {
	r.mu.RLock()
	listeners := append([]RefreshListener(nil), r.refreshers...)
	r.mu.RUnlock()
	for _, listener := range listeners {
		listener(operation, payload)
	}
}

func decodeResult(raw json.RawMessage, result any) error {
	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return dherr.Wrap(err, "failed to decode relay result")
	}
	return nil
}
