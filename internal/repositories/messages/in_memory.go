package messages

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

type inMemoryRepository struct {
	mu       sync.RWMutex
	messages map[string][]byte
}

// NewInMemoryRepository creates a new in-memory message repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		messages: make(map[string][]byte),
	}
}

func (r *inMemoryRepository) Create(ctx context.Context, message *entities.Message) error {
	if message == nil || message.ID == "" {
		return dherr.InvalidArgumentf("message ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.messages[message.ID]; exists {
		return dherr.AlreadyExistsf("message '%s' already exists", message.ID)
	}
	data, err := json.Marshal(message)
	if err != nil {
		return dherr.Wrap(err, "failed to marshal message")
	}
	r.messages[message.ID] = data
	return nil
}

func (r *inMemoryRepository) Get(ctx context.Context, id string) (*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *inMemoryRepository) get(id string) (*entities.Message, error) {
	data, exists := r.messages[id]
	if !exists {
		return nil, dherr.NotFoundf("message '%s' not found", id)
	}
	var message entities.Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, dherr.Wrap(err, "failed to unmarshal message")
	}
	return &message, nil
}

func (r *inMemoryRepository) Update(ctx context.Context, id string, p patch.Patch) (*entities.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(message, p); err != nil {
		return nil, dherr.Wrapf(err, "failed to patch message %s", id)
	}
	data, err := json.Marshal(message)
	if err != nil {
		return nil, dherr.Wrap(err, "failed to marshal message")
	}
	r.messages[id] = data
	return message, nil
}
