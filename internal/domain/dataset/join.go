package dataset

import (
	"github.com/cockroachdb/errors"
)

var ErrMissingJoinKey = errors.New("missing join key")

// LeftJoinMissing keeps every row of base and adds only the columns of other
// that base does not already carry, matched on key. Values already present in
// base are never replaced.
func LeftJoinMissing(base, other *Table, key string) (*Table, error) {
	if !base.Has(key) {
		return nil, errors.Wrapf(ErrMissingJoinKey, "base table has no %q column", key)
	}
	if !other.Has(key) {
		return nil, errors.Wrapf(ErrMissingJoinKey, "joined table has no %q column", key)
	}

	missing := make([]string, 0)
	for _, column := range other.columns {
		if !base.Has(column) {
			missing = append(missing, column)
		}
	}

	out := base.Clone()
	if len(missing) == 0 {
		return out, nil
	}
	for _, column := range missing {
		out.AddColumn(column)
	}

	lookup := other.Index(key)
	for i := range out.rows {
		src, ok := lookup[out.Text(i, key)]
		if !ok {
			continue
		}
		for _, column := range missing {
			out.Set(i, column, other.Get(src, column))
		}
	}

	return out, nil
}

// Upsert merges incoming rows into base keyed on key: matching rows are
// replaced column by column and new keys are appended.
func Upsert(base, incoming *Table, key string) (*Table, error) {
	if base == nil || base.Len() == 0 && len(base.columns) == 0 {
		if !incoming.Has(key) {
			return nil, errors.Wrapf(ErrMissingJoinKey, "incoming table has no %q column", key)
		}
		return incoming.Clone(), nil
	}
	if !base.Has(key) {
		return nil, errors.Wrapf(ErrMissingJoinKey, "stored table has no %q column", key)
	}
	if !incoming.Has(key) {
		return nil, errors.Wrapf(ErrMissingJoinKey, "incoming table has no %q column", key)
	}

	out := base.Clone()
	for _, column := range incoming.columns {
		out.AddColumn(column)
	}
	lookup := out.Index(key)
	for i := 0; i < incoming.Len(); i++ {
		row := incoming.Row(i)
		if target, ok := lookup[incoming.Text(i, key)]; ok {
			for column, value := range row {
				out.Set(target, column, value)
			}
			continue
		}
		lookup[incoming.Text(i, key)] = out.AppendRow(row)
	}
	return out, nil
}
