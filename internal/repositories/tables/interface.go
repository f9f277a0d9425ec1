package tables

import (
	"context"

	"github.com/KirkDiggler/dh-automation/internal/entities"
)

// Repository defines the interface for roll table persistence
type Repository interface {
	Put(ctx context.Context, table *entities.RollTable) error
	Get(ctx context.Context, id string) (*entities.RollTable, error)
	List(ctx context.Context) ([]*entities.RollTable, error)
}
