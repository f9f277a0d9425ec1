package messages

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/repositories/patch"
)

// Repository persists workflow messages so deferred stages can be re-invoked
type Repository interface {
	Create(ctx context.Context, message *entities.Message) error
	Get(ctx context.Context, id string) (*entities.Message, error)
	Update(ctx context.Context, id string, p patch.Patch) (*entities.Message, error)
}
