package elo

import (
	"maps"
	"time"
)

const (
	DefaultKFactor       = 32
	DefaultInitialRating = 1500
)

// Config holds the update aggressiveness and the seed rating for unseen teams.
type Config struct {
	KFactor       float64
	InitialRating float64
}

func DefaultConfig() Config {
	return Config{KFactor: DefaultKFactor, InitialRating: DefaultInitialRating}
}

// Input is one match as the rating recursion sees it. HasMargin is false for
// matches that have not been played yet.
type Input struct {
	MatchID   string
	Date      time.Time
	HomeTeam  string
	AwayTeam  string
	Margin    float64
	HasMargin bool
}

func (in Input) MatchKey() string {
	return in.MatchID
}

func (in Input) MatchDate() time.Time {
	return in.Date
}

// Snapshot is the pre-match view of both teams, captured before the update.
type Snapshot struct {
	MatchID     string
	HomeRating  float64
	AwayRating  float64
	HomeWinProb float64
	AwayWinProb float64
}

// Result is the outcome of one full run.
type Result struct {
	Snapshots map[string]Snapshot
	Order     []string
	Ratings   map[string]float64
}

// State is the team to rating mapping threaded through one run.
type State struct {
	initial float64
	ratings map[string]float64
}

func NewState(initial float64) *State {
	return &State{initial: initial, ratings: make(map[string]float64)}
}

// Rating reports the current rating without seeding the team.
func (s *State) Rating(team string) (float64, bool) {
	rating, ok := s.ratings[team]
	return rating, ok
}

func (s *State) Len() int {
	return len(s.ratings)
}

func (s *State) Ratings() map[string]float64 {
	return maps.Clone(s.ratings)
}

func (s *State) ratingOrSeed(team string) float64 {
	if rating, ok := s.ratings[team]; ok {
		return rating
	}
	s.ratings[team] = s.initial
	return s.initial
}
