package cache

import (
	"context"
	"slices"

	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
	basecache "github.com/riskibarqy/afl-match-model/internal/platform/cache"
)

type VenueRepository struct {
	next  venue.Repository
	cache *basecache.Store
}

func NewVenueRepository(next venue.Repository, cache *basecache.Store) *VenueRepository {
	return &VenueRepository{next: next, cache: cache}
}

func (r *VenueRepository) ListVenues(ctx context.Context) ([]venue.Venue, error) {
	v, err := r.cache.GetOrLoad(ctx, "venue:list", func(ctx context.Context) (any, error) {
		items, err := r.next.ListVenues(ctx)
		if err != nil {
			return nil, err
		}
		return slices.Clone(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]venue.Venue)
	return slices.Clone(items), nil
}

func (r *VenueRepository) ListHomeGrounds(ctx context.Context) ([]venue.HomeGround, error) {
	v, err := r.cache.GetOrLoad(ctx, "venue:home_grounds", func(ctx context.Context) (any, error) {
		items, err := r.next.ListHomeGrounds(ctx)
		if err != nil {
			return nil, err
		}
		return slices.Clone(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]venue.HomeGround)
	return slices.Clone(items), nil
}
