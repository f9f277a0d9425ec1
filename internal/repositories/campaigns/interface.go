package campaigns

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

// Repository defines the interface for campaign persistence
type Repository interface {
	Create(ctx context.Context, campaign *entities.Campaign) error
	Get(ctx context.Context, id string) (*entities.Campaign, error)
	Update(ctx context.Context, id string, p patch.Patch) (*entities.Campaign, error)
}
