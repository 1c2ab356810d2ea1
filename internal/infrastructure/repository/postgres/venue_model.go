package postgres

import "database/sql"

type venueTableModel struct {
	Name      string          `db:"name"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
}

type homeGroundTableModel struct {
	Team  string `db:"team"`
	Venue string `db:"venue_name"`
}
