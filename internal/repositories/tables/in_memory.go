package tables

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	dherr "github.com/KirkDiggler/dh-automation/internal/errors"
)

type inMemoryRepository struct {
	mu     sync.RWMutex
	tables map[string][]byte
}

// NewInMemoryRepository creates a new in-memory roll table repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{tables: make(map[string][]byte)}
}

func (r *inMemoryRepository) Put(ctx context.Context, table *entities.RollTable) error {
	if table == nil || table.ID == "" {
		return dherr.InvalidArgumentf("table ID is required")
	}
	data, err := json.Marshal(table)
	if err != nil {
		return dherr.Wrap(err, "failed to marshal table")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.ID] = data
	return nil
}

func (r *inMemoryRepository) Get(ctx context.Context, id string) (*entities.RollTable, error) {
	r.mu.RLock()
	data, ok := r.tables[id]
	r.mu.RUnlock()
	if !ok {
		return nil, dherr.NotFoundf("table '%s' not found", id)
	}
	var table entities.RollTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, dherr.Wrap(err, "failed to unmarshal table")
	}
	return &table, nil
}

func (r *inMemoryRepository) List(ctx context.Context) ([]*entities.RollTable, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	out := make([]*entities.RollTable, 0, len(ids))
	for _, id := range ids {
		table, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, table)
	}
	return out, nil
}
