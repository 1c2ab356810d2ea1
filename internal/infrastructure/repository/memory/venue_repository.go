package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
)

type VenueRepository struct {
	mu      sync.RWMutex
	venues  []venue.Venue
	grounds []venue.HomeGround
}

func NewVenueRepository(venues []venue.Venue, grounds []venue.HomeGround) *VenueRepository {
	return &VenueRepository{
		venues:  slices.Clone(venues),
		grounds: slices.Clone(grounds),
	}
}

func (r *VenueRepository) ListVenues(_ context.Context) ([]venue.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.venues), nil
}

func (r *VenueRepository) ListHomeGrounds(_ context.Context) ([]venue.HomeGround, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.grounds), nil
}
