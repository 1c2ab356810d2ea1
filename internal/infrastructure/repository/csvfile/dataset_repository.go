package csvfile

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
)

// DatasetRepository reads and writes <dir>/<name>.csv. Cells are inferred
// with dataset.Parse, so blanks and NA markers load as nulls.
type DatasetRepository struct {
	dir string
	mu  sync.RWMutex
}

func NewDatasetRepository(dir string) *DatasetRepository {
	return &DatasetRepository{dir: dir}
}

func (r *DatasetRepository) Load(_ context.Context, name string) (*dataset.Table, error) {
	path, err := datasetPath(r.dir, name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return readTable(path, name)
}

func (r *DatasetRepository) Save(_ context.Context, name string, table *dataset.Table, keyColumn string) error {
	path, err := datasetPath(r.dir, name)
	if err != nil {
		return err
	}
	if table == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := readTable(path, name)
	if err != nil && !errors.Is(err, dataset.ErrNotFound) {
		return err
	}
	merged, err := dataset.Upsert(existing, table, keyColumn)
	if err != nil {
		return errors.Wrapf(err, "upsert dataset %s", name)
	}

	return writeFile(path, func(f *os.File) error {
		return writeTable(f, merged)
	})
}

func (r *DatasetRepository) Get(ctx context.Context, name, keyColumn, key string) (dataset.Row, bool, error) {
	table, err := r.Load(ctx, name)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	idx, ok := table.Index(keyColumn)[strings.TrimSpace(key)]
	if !ok {
		return nil, false, nil
	}
	return table.Row(idx), true, nil
}

func readTable(path, name string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(dataset.ErrNotFound, "dataset %s", name)
		}
		return nil, errors.Wrapf(err, "open dataset %s", name)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.NewTable(), nil
		}
		return nil, errors.Wrapf(err, "read header of %s", name)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	table := dataset.NewTable(header...)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s line %d", name, line)
		}
		row := make(dataset.Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = dataset.Parse(record[i])
			}
		}
		table.AppendRow(row)
	}
	return table, nil
}

func writeTable(w io.Writer, table *dataset.Table) error {
	writer := csv.NewWriter(w)
	columns := table.Columns()
	if err := writer.Write(columns); err != nil {
		return errors.Wrap(err, "write header")
	}

	record := make([]string, len(columns))
	for i := 0; i < table.Len(); i++ {
		for j, column := range columns {
			record[j] = table.Get(i, column).String()
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flush csv")
}
