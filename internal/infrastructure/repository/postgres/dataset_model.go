package postgres

import "time"

type datasetTableModel struct {
	Name      string    `db:"name"`
	KeyColumn string    `db:"key_column"`
	Columns   []byte    `db:"columns"`
	UpdatedAt time.Time `db:"updated_at"`
}

type datasetInsertModel struct {
	Name      string `db:"name"`
	KeyColumn string `db:"key_column"`
	Columns   string `db:"columns"`
}

type datasetRowTableModel struct {
	RowKey   string `db:"row_key"`
	RowOrder int64  `db:"row_order"`
	Payload  []byte `db:"payload"`
}
