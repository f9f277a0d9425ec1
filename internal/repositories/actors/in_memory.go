package actors

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

// inMemoryRepository implements Repository using in-memory storage.
// Actors are stored serialized so callers never share pointers with the store.
type inMemoryRepository struct {
	mu     sync.RWMutex
	actors map[string][]byte
	names  map[string]string // name -> uuid, world actors only
}

// NewInMemoryRepository creates a new in-memory actor repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		actors: make(map[string][]byte),
		names:  make(map[string]string),
	}
}

// Create stores a new actor
func (r *inMemoryRepository) Create(ctx context.Context, actor *entities.Actor) error {
	if actor == nil {
		return dherr.InvalidArgumentf("actor cannot be nil")
	}
	if actor.UUID == "" {
		return dherr.InvalidArgumentf("actor UUID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actors[actor.UUID]; exists {
		return dherr.AlreadyExistsf("actor with UUID '%s' already exists", actor.UUID).
			WithMeta("actor_uuid", actor.UUID)
	}

	data, err := json.Marshal(actor)
	if err != nil {
		return dherr.Wrap(err, "failed to marshal actor")
	}
	r.actors[actor.UUID] = data
	if !actor.Compendium && actor.Name != "" {
		r.names[actor.Name] = actor.UUID
	}
	return nil
}

// Get retrieves an actor by UUID
func (r *inMemoryRepository) Get(ctx context.Context, uuid string) (*entities.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(uuid)
}

func (r *inMemoryRepository) get(uuid string) (*entities.Actor, error) {
	data, exists := r.actors[uuid]
	if !exists {
		return nil, dherr.NotFoundf("actor with UUID '%s' not found", uuid).
			WithMeta("actor_uuid", uuid)
	}
	var actor entities.Actor
	if err := json.Unmarshal(data, &actor); err != nil {
		return nil, dherr.Wrap(err, "failed to unmarshal actor")
	}
	return &actor, nil
}

// ListByUUIDs retrieves several actors in the order requested
func (r *inMemoryRepository) ListByUUIDs(ctx context.Context, uuids []string) ([]*entities.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Actor, 0, len(uuids))
	for _, uuid := range uuids {
		actor, err := r.get(uuid)
		if err != nil {
			return nil, err
		}
		result = append(result, actor)
	}
	return result, nil
}

// FindByName resolves a world actor by name
func (r *inMemoryRepository) FindByName(ctx context.Context, name string) (*entities.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uuid, ok := r.names[name]
	if !ok {
		return nil, dherr.NotFoundf("no world actor named '%s'", name)
	}
	return r.get(uuid)
}

// Update applies a partial patch to an actor
func (r *inMemoryRepository) Update(ctx context.Context, uuid string, p patch.Patch) (*entities.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, err := r.get(uuid)
	if err != nil {
		return nil, err
	}
	oldName := actor.Name

	if err := patch.Apply(actor, p); err != nil {
		return nil, dherr.Wrapf(err, "failed to patch actor %s", uuid)
	}
	actor.Normalize()

	data, err := json.Marshal(actor)
	if err != nil {
		return nil, dherr.Wrap(err, "failed to marshal actor")
	}
	r.actors[uuid] = data

	if !actor.Compendium && oldName != actor.Name {
		if r.names[oldName] == uuid {
			delete(r.names, oldName)
		}
		r.names[actor.Name] = uuid
	}
	return actor, nil
}

// Delete removes an actor
func (r *inMemoryRepository) Delete(ctx context.Context, uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, err := r.get(uuid)
	if err != nil {
		return err
	}
	delete(r.actors, uuid)
	if r.names[actor.Name] == uuid {
		delete(r.names, actor.Name)
	}
	return nil
}
