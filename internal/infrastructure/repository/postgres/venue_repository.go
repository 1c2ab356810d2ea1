package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
	qb "github.com/riskibarqy/afl-match-model/internal/platform/querybuilder"
)

type VenueRepository struct {
	db *sqlx.DB
}

func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) ListVenues(ctx context.Context) ([]venue.Venue, error) {
	query, args, err := qb.Select("name", "latitude", "longitude").From("venues").
		Where(qb.IsNull("deleted_at")).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select venues query: %w", err)
	}

	var rows []venueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select venues: %w", err)
	}

	out := make([]venue.Venue, 0, len(rows))
	for _, row := range rows {
		lat, latOK := nullableFloat(row.Latitude)
		lon, lonOK := nullableFloat(row.Longitude)
		if !latOK || !lonOK {
			continue
		}
		out = append(out, venue.Venue{Name: row.Name, Latitude: lat, Longitude: lon})
	}

	return out, nil
}

func (r *VenueRepository) ListHomeGrounds(ctx context.Context) ([]venue.HomeGround, error) {
	query, args, err := qb.Select("team", "venue_name").From("team_home_grounds").
		Where(qb.Eq("ground_rank", 1), qb.IsNull("deleted_at")).
		OrderBy("team").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select home grounds query: %w", err)
	}

	var rows []homeGroundTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select home grounds: %w", err)
	}

	out := make([]venue.HomeGround, 0, len(rows))
	for _, row := range rows {
		out = append(out, venue.HomeGround{Team: row.Team, Venue: row.Venue})
	}

	return out, nil
}
