package actors

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

// Repository defines the interface for actor persistence
type Repository interface {
	// Create stores a new actor
	Create(ctx context.Context, actor *entities.Actor) error

	// Get retrieves an actor by UUID
	Get(ctx context.Context, uuid string) (*entities.Actor, error)

	// ListByUUIDs retrieves several actors, failing if any is missing
	ListByUUIDs(ctx context.Context, uuids []string) ([]*entities.Actor, error)

	// FindByName resolves a world actor (not a compendium entry) by name
	FindByName(ctx context.Context, name string) (*entities.Actor, error)

	// Update applies a partial patch, normalizes and stores the result
	Update(ctx context.Context, uuid string, p patch.Patch) (*entities.Actor, error)

	// Delete removes an actor
	Delete(ctx context.Context, uuid string) error
}
