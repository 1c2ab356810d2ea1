package venue

import "context"

type Repository interface {
	ListVenues(ctx context.Context) ([]Venue, error)
	ListHomeGrounds(ctx context.Context) ([]HomeGround, error)
}
