package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
)

type DatasetRepository struct {
	mu     sync.RWMutex
	tables map[string]*dataset.Table
}

func NewDatasetRepository(tables map[string]*dataset.Table) *DatasetRepository {
	stored := make(map[string]*dataset.Table, len(tables))
	for name, table := range tables {
		if table == nil {
			continue
		}
		stored[strings.TrimSpace(name)] = table.Clone()
	}

	return &DatasetRepository{tables: stored}
}

func (r *DatasetRepository) Load(_ context.Context, name string) (*dataset.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrNotFound, name)
	}

	return table.Clone(), nil
}

func (r *DatasetRepository) Save(_ context.Context, name string, table *dataset.Table, keyColumn string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("dataset name is required")
	}
	if table == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged, err := dataset.Upsert(r.tables[name], table, keyColumn)
	if err != nil {
		return fmt.Errorf("upsert dataset %s: %w", name, err)
	}
	r.tables[name] = merged

	return nil
}

func (r *DatasetRepository) Get(_ context.Context, name, keyColumn, key string) (dataset.Row, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[strings.TrimSpace(name)]
	if !ok {
		return nil, false, nil
	}
	idx, ok := table.Index(keyColumn)[strings.TrimSpace(key)]
	if !ok {
		return nil, false, nil
	}

	return table.Row(idx), true, nil
}
