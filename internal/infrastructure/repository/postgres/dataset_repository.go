package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	qb "github.com/riskibarqy/afl-match-model/internal/platform/querybuilder"
)

const rowBatchSize = 200

// DatasetRepository keeps each dataset as a column list in datasets and one
// JSONB payload per keyed row in dataset_rows.
type DatasetRepository struct {
	db *sqlx.DB
}

func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

func (r *DatasetRepository) Load(ctx context.Context, name string) (*dataset.Table, error) {
	meta, err := r.getDataset(ctx, r.db, name, false)
	if err != nil {
		return nil, err
	}
	columns, err := decodeColumns(meta.Columns)
	if err != nil {
		return nil, err
	}

	query, args, err := qb.Select("row_key", "row_order", "payload").From("dataset_rows").
		Where(qb.Eq("dataset_name", meta.Name)).
		OrderBy("row_order", "row_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select dataset rows query: %w", err)
	}

	var rows []datasetRowTableModel
	if err := withStatementRetry(func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	}); err != nil {
		return nil, fmt.Errorf("select dataset rows %s: %w", name, err)
	}

	table := dataset.NewTable(columns...)
	for _, row := range rows {
		values, err := decodePayload(row.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset %s row %s", name, row.RowKey)
		}
		table.AppendRow(values)
	}

	return table, nil
}

func (r *DatasetRepository) Save(ctx context.Context, name string, table *dataset.Table, keyColumn string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("dataset name is required")
	}
	if table == nil {
		return nil
	}
	if !table.Has(keyColumn) {
		return errors.Wrapf(dataset.ErrMissingJoinKey, "incoming table has no %q column", keyColumn)
	}

	keys, rows, err := collapseByKey(table, keyColumn)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save dataset: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	columns := table.Columns()
	meta, err := r.getDataset(ctx, tx, name, true)
	switch {
	case err == nil:
		if meta.KeyColumn != keyColumn {
			return errors.Wrapf(dataset.ErrMissingJoinKey, "dataset %s is keyed on %q", name, meta.KeyColumn)
		}
		stored, err := decodeColumns(meta.Columns)
		if err != nil {
			return err
		}
		columns = mergeColumns(stored, columns)
	case errors.Is(err, dataset.ErrNotFound):
	default:
		return err
	}

	if err := r.upsertDataset(ctx, tx, name, keyColumn, columns); err != nil {
		return err
	}

	nextOrder, err := r.nextRowOrder(ctx, tx, name)
	if err != nil {
		return err
	}

	for start := 0; start < len(keys); start += rowBatchSize {
		end := min(start+rowBatchSize, len(keys))
		insert := qb.InsertInto("dataset_rows").Columns("dataset_name", "row_key", "row_order", "payload")
		for i := start; i < end; i++ {
			payload, err := encodePayload(rows[i])
			if err != nil {
				return errors.Wrapf(err, "dataset %s row %s", name, keys[i])
			}
			insert.Values(name, keys[i], nextOrder+int64(i), payload)
		}

		query, args, err := insert.Suffix(`ON CONFLICT (dataset_name, row_key)
DO UPDATE SET
    payload = dataset_rows.payload || EXCLUDED.payload,
    updated_at = NOW()`).ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert dataset rows query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert dataset rows %s [%d:%d]: %w", name, start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save dataset tx: %w", err)
	}

	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, name, keyColumn, key string) (dataset.Row, bool, error) {
	query, args, err := qb.Select("row_key", "row_order", "payload").From("dataset_rows").
		Where(
			qb.Eq("dataset_name", strings.TrimSpace(name)),
			qb.Expr("payload ->> ? = ?", keyColumn, strings.TrimSpace(key)),
		).
		OrderBy("row_order").
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get dataset row query: %w", err)
	}

	var row datasetRowTableModel
	if err := withStatementRetry(func() error {
		return r.db.GetContext(ctx, &row, query, args...)
	}); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get dataset row %s/%s: %w", name, key, err)
	}

	values, err := decodePayload(row.Payload)
	if err != nil {
		return nil, false, errors.Wrapf(err, "dataset %s row %s", name, row.RowKey)
	}
	return values, true, nil
}

func (r *DatasetRepository) getDataset(ctx context.Context, q sqlx.QueryerContext, name string, forUpdate bool) (datasetTableModel, error) {
	query, args, err := qb.Select("name", "key_column", "columns", "updated_at").From("datasets").
		Where(qb.Eq("name", strings.TrimSpace(name))).
		ToSQL()
	if err != nil {
		return datasetTableModel{}, fmt.Errorf("build select dataset query: %w", err)
	}
	if forUpdate {
		query += " FOR UPDATE"
	}

	var meta datasetTableModel
	if err := sqlx.GetContext(ctx, q, &meta, query, args...); err != nil {
		if isNotFound(err) {
			return datasetTableModel{}, errors.Wrapf(dataset.ErrNotFound, "dataset %s", name)
		}
		return datasetTableModel{}, fmt.Errorf("select dataset %s: %w", name, err)
	}
	return meta, nil
}

func (r *DatasetRepository) upsertDataset(ctx context.Context, tx *sqlx.Tx, name, keyColumn string, columns []string) error {
	encoded, err := encodeColumns(columns)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("datasets", datasetInsertModel{
		Name:      name,
		KeyColumn: keyColumn,
		Columns:   encoded,
	}, qb.OnConflictUpdate([]string{"name"}, []string{"key_column", "columns"}, "updated_at = NOW()"))
	if err != nil {
		return fmt.Errorf("build upsert dataset query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert dataset %s: %w", name, err)
	}
	return nil
}

func (r *DatasetRepository) nextRowOrder(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	query, args, err := qb.Select("COALESCE(MAX(row_order), -1) + 1").From("dataset_rows").
		Where(qb.Eq("dataset_name", name)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build next row order query: %w", err)
	}

	var next int64
	if err := tx.GetContext(ctx, &next, query, args...); err != nil {
		return 0, fmt.Errorf("select next row order %s: %w", name, err)
	}
	return next, nil
}

// collapseByKey merges rows sharing a key, later cells overriding earlier
// ones, and keeps first-appearance order.
func collapseByKey(table *dataset.Table, keyColumn string) ([]string, []dataset.Row, error) {
	keys := make([]string, 0, table.Len())
	rows := make([]dataset.Row, 0, table.Len())
	seen := make(map[string]int, table.Len())

	for i := 0; i < table.Len(); i++ {
		key := table.Text(i, keyColumn)
		if key == "" {
			return nil, nil, errors.Wrapf(dataset.ErrMissingJoinKey, "row %d has a blank %q", i, keyColumn)
		}
		row := table.Row(i)
		if idx, ok := seen[key]; ok {
			for column, value := range row {
				rows[idx][column] = value
			}
			continue
		}
		seen[key] = len(keys)
		keys = append(keys, key)
		rows = append(rows, row)
	}
	return keys, rows, nil
}

func mergeColumns(stored, incoming []string) []string {
	out := slices.Clone(stored)
	for _, column := range incoming {
		if !slices.Contains(out, column) {
			out = append(out, column)
		}
	}
	return out
}
