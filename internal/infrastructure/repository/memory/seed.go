package memory

import "github.com/riskibarqy/afl-match-model/internal/domain/venue"

const (
	VenueMCG        = "M.C.G."
	VenueDocklands  = "Docklands"
	VenueAdelaide   = "Adelaide Oval"
	VenuePerth      = "Perth Stadium"
	VenueGabba      = "Gabba"
	VenueSCG        = "S.C.G."
	VenueShowground = "Sydney Showground"
	VenueKardinia   = "Kardinia Park"
	VenueCarrara    = "Carrara"
)

func SeedVenues() []venue.Venue {
	return []venue.Venue{
		{Name: VenueMCG, Latitude: -37.8200, Longitude: 144.9834},
		{Name: VenueDocklands, Latitude: -37.8165, Longitude: 144.9475},
		{Name: VenueAdelaide, Latitude: -34.9156, Longitude: 138.5961},
		{Name: VenuePerth, Latitude: -31.9512, Longitude: 115.8891},
		{Name: VenueGabba, Latitude: -27.4858, Longitude: 153.0381},
		{Name: VenueSCG, Latitude: -33.8917, Longitude: 151.2247},
		{Name: VenueShowground, Latitude: -33.8434, Longitude: 151.0674},
		{Name: VenueKardinia, Latitude: -38.1580, Longitude: 144.3547},
		{Name: VenueCarrara, Latitude: -28.0063, Longitude: 153.3670},
	}
}

func SeedHomeGrounds() []venue.HomeGround {
	return []venue.HomeGround{
		{Team: "Adelaide", Venue: VenueAdelaide},
		{Team: "Brisbane Lions", Venue: VenueGabba},
		{Team: "Carlton", Venue: VenueMCG},
		{Team: "Collingwood", Venue: VenueMCG},
		{Team: "Essendon", Venue: VenueDocklands},
		{Team: "Fremantle", Venue: VenuePerth},
		{Team: "Geelong", Venue: VenueKardinia},
		{Team: "Gold Coast", Venue: VenueCarrara},
		{Team: "G W S", Venue: VenueShowground},
		{Team: "Hawthorn", Venue: VenueMCG},
		{Team: "Melbourne", Venue: VenueMCG},
		{Team: "North Melbourne", Venue: VenueDocklands},
		{Team: "Port Adelaide", Venue: VenueAdelaide},
		{Team: "Richmond", Venue: VenueMCG},
		{Team: "St Kilda", Venue: VenueDocklands},
		{Team: "Sydney", Venue: VenueSCG},
		{Team: "West Coast", Venue: VenuePerth},
		{Team: "Western Bulldogs", Venue: VenueDocklands},
	}
}
