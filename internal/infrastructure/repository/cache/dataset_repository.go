package cache

import (
	"context"
	"maps"
	"strings"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	basecache "github.com/riskibarqy/afl-match-model/internal/platform/cache"
)

// DatasetRepository is a read-through cache over a dataset store. Saving a
// dataset drops every cached table and row of that dataset.
type DatasetRepository struct {
	next  dataset.Repository
	cache *basecache.Store
}

func NewDatasetRepository(next dataset.Repository, cache *basecache.Store) *DatasetRepository {
	return &DatasetRepository{next: next, cache: cache}
}

func (r *DatasetRepository) Load(ctx context.Context, name string) (*dataset.Table, error) {
	v, err := r.cache.GetOrLoad(ctx, datasetPrefix(name)+"table", func(ctx context.Context) (any, error) {
		return r.next.Load(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	table, _ := v.(*dataset.Table)
	if table == nil {
		return dataset.NewTable(), nil
	}
	return table.Clone(), nil
}

func (r *DatasetRepository) Save(ctx context.Context, name string, table *dataset.Table, keyColumn string) error {
	err := r.next.Save(ctx, name, table, keyColumn)
	r.cache.DeletePrefix(ctx, datasetPrefix(name))
	return err
}

func (r *DatasetRepository) Get(ctx context.Context, name, keyColumn, key string) (dataset.Row, bool, error) {
	cacheKey := datasetPrefix(name) + "row:" + keyColumn + ":" + strings.TrimSpace(key)
	v, err := r.cache.GetOrLoad(ctx, cacheKey, func(ctx context.Context) (any, error) {
		row, exists, err := r.next.Get(ctx, name, keyColumn, key)
		if err != nil {
			return nil, err
		}
		return cachedRow{value: row, exists: exists}, nil
	})
	if err != nil {
		return nil, false, err
	}

	cached, _ := v.(cachedRow)
	return maps.Clone(cached.value), cached.exists, nil
}

type cachedRow struct {
	value  dataset.Row
	exists bool
}

func datasetPrefix(name string) string {
	return "dataset:" + strings.TrimSpace(name) + ":"
}
