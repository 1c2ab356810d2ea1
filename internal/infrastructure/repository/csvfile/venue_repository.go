package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gocarina/gocsv"

	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
)

const (
	VenuesFile   = "Venues.csv"
	TeamInfoFile = "Team_Info.csv"
)

type venueRecord struct {
	Venue     string `csv:"Venue"`
	Latitude  string `csv:"Latitude"`
	Longitude string `csv:"Longitude"`
}

type teamInfoRecord struct {
	Team        string `csv:"Team"`
	HomeGround1 string `csv:"Home_Ground_1"`
}

// VenueRepository reads Venues.csv and Team_Info.csv from dir. Venues with
// blank or non-numeric coordinates are skipped so their distances stay unknown.
type VenueRepository struct {
	dir string
}

func NewVenueRepository(dir string) *VenueRepository {
	return &VenueRepository{dir: dir}
}

func (r *VenueRepository) ListVenues(_ context.Context) ([]venue.Venue, error) {
	var records []venueRecord
	if err := unmarshalFile(filepath.Join(r.dir, VenuesFile), &records); err != nil {
		return nil, err
	}

	out := make([]venue.Venue, 0, len(records))
	for _, record := range records {
		name := strings.TrimSpace(record.Venue)
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(record.Latitude), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(record.Longitude), 64)
		if name == "" || latErr != nil || lonErr != nil {
			continue
		}
		out = append(out, venue.Venue{Name: name, Latitude: lat, Longitude: lon})
	}
	return out, nil
}

func (r *VenueRepository) ListHomeGrounds(_ context.Context) ([]venue.HomeGround, error) {
	var records []teamInfoRecord
	if err := unmarshalFile(filepath.Join(r.dir, TeamInfoFile), &records); err != nil {
		return nil, err
	}

	out := make([]venue.HomeGround, 0, len(records))
	for _, record := range records {
		team := strings.TrimSpace(record.Team)
		ground := strings.TrimSpace(record.HomeGround1)
		if team == "" || ground == "" {
			continue
		}
		out = append(out, venue.HomeGround{Team: team, Venue: ground})
	}
	return out, nil
}

func unmarshalFile(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", filepath.Base(path))
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return errors.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return nil
}
