package venue

import (
	"math"
	"testing"
)

var (
	mcg   = Venue{Name: "M.C.G.", Latitude: -37.8199, Longitude: 144.9834}
	gabba = Venue{Name: "Gabba", Latitude: -27.4858, Longitude: 153.0381}
)

func TestDistanceKM(t *testing.T) {
	t.Parallel()

	got := DistanceKM(mcg, gabba)
	// roughly 1,375 km between Melbourne and Brisbane
	if got < 1350 || got > 1400 {
		t.Fatalf("unexpected MCG to Gabba distance: %.1f km", got)
	}
	if d := DistanceKM(mcg, mcg); math.Abs(d) > 1e-6 {
		t.Fatalf("distance to self must be zero, got %v", d)
	}
	if math.Abs(DistanceKM(mcg, gabba)-DistanceKM(gabba, mcg)) > 1e-6 {
		t.Fatalf("distance must be symmetric")
	}
}

func TestLocator_TravelKM(t *testing.T) {
	t.Parallel()

	locator := NewLocator(
		[]Venue{mcg, gabba},
		[]HomeGround{{Team: "Brisbane Lions", Venue: "Gabba"}, {Team: "Collingwood", Venue: "M.C.G."}, {Team: "Nomads", Venue: "Nowhere"}},
	)

	home, ok := locator.TravelKM("Collingwood", "m.c.g.")
	if !ok || home != 0 {
		t.Fatalf("home team at its own ground travels 0 km, got %v ok=%t", home, ok)
	}
	away, ok := locator.TravelKM("brisbane  lions", "M.C.G.")
	if !ok || away < 1350 {
		t.Fatalf("unexpected away travel: %v ok=%t", away, ok)
	}
	if _, ok := locator.TravelKM("Nomads", "M.C.G."); ok {
		t.Fatalf("unknown home ground coordinates must be undefined")
	}
	if _, ok := locator.TravelKM("Collingwood", "Unknown Oval"); ok {
		t.Fatalf("unknown venue must be undefined")
	}
}
