package elo

import (
	"fmt"
	"math"

	"github.com/riskibarqy/afl-match-model/internal/domain/match"
)

// WinProbability is the logistic chance that a team rated a beats one rated b.
func WinProbability(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Outcome maps a home margin to the home side's actual score.
func Outcome(margin float64) float64 {
	switch {
	case margin > 0:
		return 1
	case margin < 0:
		return 0
	default:
		return 0.5
	}
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.KFactor < 0 {
		return nil, fmt.Errorf("k factor must be >= 0, got %v", cfg.KFactor)
	}
	if cfg.InitialRating < 0 {
		return nil, fmt.Errorf("initial rating must be >= 0, got %v", cfg.InitialRating)
	}
	if cfg.KFactor == 0 {
		cfg.KFactor = DefaultKFactor
	}
	if cfg.InitialRating == 0 {
		cfg.InitialRating = DefaultInitialRating
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) NewState() *State {
	return NewState(e.cfg.InitialRating)
}

// ProcessMatch reads both ratings, records them with the implied probabilities
// and then applies the update. Unplayed matches leave state untouched.
func (e *Engine) ProcessMatch(state *State, in Input) Snapshot {
	home := state.ratingOrSeed(in.HomeTeam)
	away := state.ratingOrSeed(in.AwayTeam)

	homeProb := WinProbability(home, away)
	awayProb := WinProbability(away, home)
	snapshot := Snapshot{
		MatchID:     in.MatchID,
		HomeRating:  home,
		AwayRating:  away,
		HomeWinProb: homeProb,
		AwayWinProb: awayProb,
	}
	if !in.HasMargin || math.IsNaN(in.Margin) {
		return snapshot
	}

	actual := Outcome(in.Margin)
	state.ratings[in.HomeTeam] = home + e.cfg.KFactor*(actual-homeProb)
	state.ratings[in.AwayTeam] = away + e.cfg.KFactor*((1-actual)-awayProb)

	return snapshot
}

// RunSequence orders the inputs chronologically and walks them once from a
// fresh state. Each match depends on every earlier update, so the walk is
// sequential.
func (e *Engine) RunSequence(inputs []Input) (Result, error) {
	order, err := match.Chronological(inputs)
	if err != nil {
		return Result{}, err
	}

	state := e.NewState()
	result := Result{
		Snapshots: make(map[string]Snapshot, len(inputs)),
		Order:     make([]string, 0, len(inputs)),
	}
	for _, idx := range order {
		in := inputs[idx]
		if in.HomeTeam == in.AwayTeam {
			return Result{}, fmt.Errorf("match %s: home and away team are both %q", in.MatchID, in.HomeTeam)
		}
		result.Snapshots[in.MatchID] = e.ProcessMatch(state, in)
		result.Order = append(result.Order, in.MatchID)
	}
	result.Ratings = state.Ratings()

	return result, nil
}
