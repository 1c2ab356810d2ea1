package prediction

import "time"

// Outcome is a win-probability prediction for one match.
type Outcome struct {
	MatchID       string
	HomeTeam      string
	AwayTeam      string
	HomeWinProb   float64
	AwayWinProb   float64
	PredictedTeam string
	PredictedAt   time.Time
}

// NewOutcome derives the away probability and the predicted team from the home probability.
func NewOutcome(matchID, homeTeam, awayTeam string, homeWinProb float64, at time.Time) Outcome {
	predicted := awayTeam
	if homeWinProb > 0.5 {
		predicted = homeTeam
	}
	return Outcome{
		MatchID:       matchID,
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		HomeWinProb:   homeWinProb,
		AwayWinProb:   1 - homeWinProb,
		PredictedTeam: predicted,
		PredictedAt:   at,
	}
}

// Margin is a points-margin prediction from the home side's perspective.
type Margin struct {
	MatchID         string
	HomeTeam        string
	AwayTeam        string
	PredictedMargin float64
	PredictedWinner string
	PredictedAt     time.Time
}

func NewMargin(matchID, homeTeam, awayTeam string, margin float64, at time.Time) Margin {
	winner := awayTeam
	if margin > 0 {
		winner = homeTeam
	}
	return Margin{
		MatchID:         matchID,
		HomeTeam:        homeTeam,
		AwayTeam:        awayTeam,
		PredictedMargin: margin,
		PredictedWinner: winner,
		PredictedAt:     at,
	}
}
