package dataset

import (
	"context"

	"github.com/cockroachdb/errors"
)

var ErrNotFound = errors.New("dataset not found")

// Repository reads and writes named tabular datasets.
type Repository interface {
	Load(ctx context.Context, name string) (*Table, error)
	Save(ctx context.Context, name string, table *Table, keyColumn string) error
	Get(ctx context.Context, name, keyColumn, key string) (Row, bool, error)
}
