package venue

import (
	"strings"

	"github.com/tidwall/geodesic"
)

// Venue is a ground with its coordinates in decimal degrees.
type Venue struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// HomeGround names the primary ground of a team.
type HomeGround struct {
	Team  string
	Venue string
}

// DistanceKM is the WGS84 geodesic distance between two venues.
func DistanceKM(a, b Venue) float64 {
	var metres float64
	geodesic.WGS84.Inverse(a.Latitude, a.Longitude, b.Latitude, b.Longitude, &metres, nil, nil)
	return metres / 1000
}

// Locator resolves how far a team travels to a venue.
type Locator struct {
	venues  map[string]Venue
	grounds map[string]string
}

func NewLocator(venues []Venue, grounds []HomeGround) *Locator {
	l := &Locator{
		venues:  make(map[string]Venue, len(venues)),
		grounds: make(map[string]string, len(grounds)),
	}
	for _, v := range venues {
		l.venues[normalize(v.Name)] = v
	}
	for _, g := range grounds {
		l.grounds[normalize(g.Team)] = g.Venue
	}
	return l
}

func (l *Locator) Venue(name string) (Venue, bool) {
	v, ok := l.venues[normalize(name)]
	return v, ok
}

// HomeGround returns the team's home venue when both the team and its ground are known.
func (l *Locator) HomeGround(team string) (Venue, bool) {
	name, ok := l.grounds[normalize(team)]
	if !ok {
		return Venue{}, false
	}
	return l.Venue(name)
}

// TravelKM is the distance from the team's home ground to the match venue.
func (l *Locator) TravelKM(team, venueName string) (float64, bool) {
	home, ok := l.HomeGround(team)
	if !ok {
		return 0, false
	}
	at, ok := l.Venue(venueName)
	if !ok {
		return 0, false
	}
	return DistanceKM(at, home), true
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
