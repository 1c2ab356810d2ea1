package matchid

import (
	"fmt"
	"maps"
	"strings"
)

const (
	regularRounds = 25
	finalsWeeks   = 5
)

// RoundTable maps round codes to ordinals. Finals numbering differs between
// seasons, so a season may carry its own overrides on top of the base table.
type RoundTable struct {
	base     map[string]int
	bySeason map[int]map[string]int
}

// DefaultRoundTable maps 00-24 to 0-24 and F1-F5 to 25-29.
func DefaultRoundTable() RoundTable {
	base := make(map[string]int, regularRounds+finalsWeeks)
	for i := 0; i < regularRounds; i++ {
		base[fmt.Sprintf("%02d", i)] = i
	}
	for i := 1; i <= finalsWeeks; i++ {
		base[fmt.Sprintf("F%d", i)] = regularRounds - 1 + i
	}
	return RoundTable{base: base, bySeason: map[int]map[string]int{}}
}

// WithSeason returns a copy of the table with the given codes remapped for one season.
func (t RoundTable) WithSeason(season int, overrides map[string]int) RoundTable {
	out := RoundTable{
		base:     t.base,
		bySeason: make(map[int]map[string]int, len(t.bySeason)+1),
	}
	maps.Copy(out.bySeason, t.bySeason)

	merged := make(map[string]int, len(overrides))
	maps.Copy(merged, t.bySeason[season])
	for code, ordinal := range overrides {
		merged[strings.ToUpper(strings.TrimSpace(code))] = ordinal
	}
	out.bySeason[season] = merged
	return out
}

// Ordinal resolves a round code for a season, preferring season overrides.
func (t RoundTable) Ordinal(season int, code string) (int, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if overrides, ok := t.bySeason[season]; ok {
		if ordinal, ok := overrides[code]; ok {
			return ordinal, true
		}
	}
	if t.base == nil {
		return DefaultRoundTable().Ordinal(season, code)
	}
	ordinal, ok := t.base[code]
	return ordinal, ok
}

// Seasons lists the seasons that carry overrides.
func (t RoundTable) Seasons() []int {
	out := make([]int, 0, len(t.bySeason))
	for season := range t.bySeason {
		out = append(out, season)
	}
	return out
}
