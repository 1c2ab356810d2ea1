package matchid

import (
	"fmt"
	"strings"
)

// ID is a parsed match key of the form <competition>_<season>_<round>_<Home>_<Away>.
type ID struct {
	Raw         string
	Competition string
	Season      int
	RoundCode   string
	Round       int
	HomeTeam    string
	AwayTeam    string
}

func (id ID) String() string {
	if id.Raw != "" {
		return id.Raw
	}
	return Format(id.Competition, id.Season, id.RoundCode, id.HomeTeam, id.AwayTeam)
}

// IsFinal reports whether the round code belongs to the finals series.
func (id ID) IsFinal() bool {
	return strings.HasPrefix(id.RoundCode, "F")
}

// Format builds a match key from display names, joining multi-word team names.
func Format(competition string, season int, roundCode, homeTeam, awayTeam string) string {
	return fmt.Sprintf("%s_%d_%s_%s_%s",
		strings.TrimSpace(competition),
		season,
		strings.ToUpper(strings.TrimSpace(roundCode)),
		joinTeamName(homeTeam),
		joinTeamName(awayTeam),
	)
}

func joinTeamName(name string) string {
	return strings.Join(strings.Fields(name), "")
}
