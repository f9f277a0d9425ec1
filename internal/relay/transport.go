package relay

import (
	"context"
	"log/slog"
	"sync"

	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

// Listener receives envelopes from a transport
type Listener func(env Envelope)

// Transport fans envelopes out to every subscribed participant
type Transport interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, listenerID string, listener Listener) (unsubscribe func(), err error)
}

const hubBuffer = 64

type hubSubscriber struct {
	id    string
	queue chan Envelope
	done  chan struct{}
}

// Hub is an in-process Transport. Each subscriber drains its own queue so
// a listener that publishes from inside its callback cannot deadlock the hub.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*hubSubscriber
	logger      *slog.Logger
}

// NewHub creates an in-process transport
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]*hubSubscriber),
		logger:      logger,
	}
}

// Subscribe adds a listener; subscribing the same ID twice replaces the first
func (h *Hub) Subscribe(ctx context.Context, listenerID string, listener Listener) (func(), error) {
	if listener == nil {
		return nil, dherr.InvalidArgumentf("listener cannot be nil")
	}

	sub := &hubSubscriber{
		id:    listenerID,
		queue: make(chan Envelope, hubBuffer),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	if previous, ok := h.subscribers[listenerID]; ok {
		close(previous.done)
	}
	h.subscribers[listenerID] = sub
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case env := <-sub.queue:
				listener(env)
			}
		}
	}()

	h.logger.Debug("relay hub subscribed", "listener", listenerID)

	return func() { h.unsubscribe(sub) }, nil
}

func (h *Hub) unsubscribe(sub *hubSubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.subscribers[sub.id]; ok && current == sub {
		delete(h.subscribers, sub.id)
		close(sub.done)
		h.logger.Debug("relay hub unsubscribed", "listener", sub.id)
	}
}

// Publish queues env for every subscriber
func (h *Hub) Publish(ctx context.Context, env Envelope) error {
	h.mu.RLock()
	subs := make([]*hubSubscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.queue <- env:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
