package match

import (
	"time"

	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
)

// Score is one side of a final score line in goals.behinds.total form.
type Score struct {
	Goals   int
	Behinds int
	Total   int
}

func (s Score) ScoringShots() int {
	return s.Goals + s.Behinds
}

// GoalConversion is goals per scoring shot; ok is false when no shots were taken.
func (s Score) GoalConversion() (float64, bool) {
	shots := s.ScoringShots()
	if shots == 0 {
		return 0, false
	}
	return float64(s.Goals) / float64(shots), true
}

// Match is one fixture as seen by the feature pipeline. Scores are nil until
// the match has been played.
type Match struct {
	ID        matchid.ID
	Date      time.Time
	Venue     string
	HomeTeam  string
	AwayTeam  string
	HomeScore *Score
	AwayScore *Score
}

func (m Match) MatchKey() string {
	return m.ID.String()
}

func (m Match) MatchDate() time.Time {
	return m.Date
}

func (m Match) Played() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Margin is home total minus away total.
func (m Match) Margin() (float64, bool) {
	if !m.Played() {
		return 0, false
	}
	return float64(m.HomeScore.Total - m.AwayScore.Total), true
}

// HomeWin is 1 for a home win and 0 otherwise, draws included.
func (m Match) HomeWin() (float64, bool) {
	margin, ok := m.Margin()
	if !ok {
		return 0, false
	}
	if margin > 0 {
		return 1, true
	}
	return 0, true
}
