package dataset

import (
	"slices"
	"sort"
	"strings"
)

// Row is a detached copy of one table row keyed by column name.
type Row map[string]Value

func (r Row) Get(column string) Value {
	return r[column]
}

// Table is an ordered-column, row-major result set.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

func NewTable(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, column := range columns {
		t.AddColumn(column)
	}
	return t
}

// FromRows builds a table whose columns follow first appearance across rows,
// with the given leading columns placed first.
func FromRows(rows []Row, leading ...string) *Table {
	t := NewTable(leading...)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for key := range row {
			if !t.Has(key) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			t.AddColumn(key)
		}
		t.AppendRow(row)
	}
	return t
}

func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[column]
	return ok
}

// AddColumn appends a column filled with nulls. Existing columns are left alone.
func (t *Table) AddColumn(column string) int {
	if idx, ok := t.index[column]; ok {
		return idx
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	idx := len(t.columns)
	t.columns = append(t.columns, column)
	t.index[column] = idx
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], Null())
	}
	return idx
}

// AppendRow adds a row, creating any columns it introduces.
func (t *Table) AppendRow(values Row) int {
	for column := range values {
		if !t.Has(column) {
			t.AddColumn(column)
		}
	}
	row := make([]Value, len(t.columns))
	for column, value := range values {
		row[t.index[column]] = value
	}
	t.rows = append(t.rows, row)
	return len(t.rows) - 1
}

func (t *Table) Get(row int, column string) Value {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return Null()
	}
	return t.rows[row][idx]
}

func (t *Table) Set(row int, column string, value Value) {
	idx := t.AddColumn(column)
	t.rows[row][idx] = value
}

func (t *Table) Float(row int, column string) (float64, bool) {
	return t.Get(row, column).Float()
}

func (t *Table) Text(row int, column string) string {
	return strings.TrimSpace(t.Get(row, column).String())
}

func (t *Table) Row(row int) Row {
	out := make(Row, len(t.columns))
	for idx, column := range t.columns {
		out[column] = t.rows[row][idx]
	}
	return out
}

// Index maps the textual value of column to the first row holding it.
func (t *Table) Index(column string) map[string]int {
	out := make(map[string]int, len(t.rows))
	idx, ok := t.index[column]
	if !ok {
		return out
	}
	for i, row := range t.rows {
		key := strings.TrimSpace(row[idx].String())
		if key == "" {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = i
		}
	}
	return out
}

// SortBy orders rows by the textual value of column. Ties keep their order.
func (t *Table) SortBy(column string) {
	idx, ok := t.index[column]
	if !ok {
		return
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		return t.rows[i][idx].String() < t.rows[j][idx].String()
	})
}

func (t *Table) Clone() *Table {
	out := &Table{
		columns: slices.Clone(t.columns),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]Value, len(t.rows)),
	}
	for column, idx := range t.index {
		out.index[column] = idx
	}
	for i, row := range t.rows {
		out.rows[i] = slices.Clone(row)
	}
	return out
}

// Select returns a table holding only the named columns, in the given order.
// Unknown columns are created as nulls.
func (t *Table) Select(columns ...string) *Table {
	out := NewTable(columns...)
	for i := range t.rows {
		row := make(Row, len(columns))
		for _, column := range columns {
			row[column] = t.Get(i, column)
		}
		out.AppendRow(row)
	}
	return out
}
