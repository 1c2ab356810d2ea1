package postgres

import "time"

type outcomePredictionInsertModel struct {
	MatchID       string    `db:"match_id"`
	HomeTeam      string    `db:"home_team"`
	AwayTeam      string    `db:"away_team"`
	HomeWinProb   float64   `db:"home_win_prob"`
	AwayWinProb   float64   `db:"away_win_prob"`
	PredictedTeam string    `db:"predicted_team"`
	PredictedAt   time.Time `db:"predicted_at"`
}

type marginPredictionInsertModel struct {
	MatchID         string    `db:"match_id"`
	HomeTeam        string    `db:"home_team"`
	AwayTeam        string    `db:"away_team"`
	PredictedMargin float64   `db:"predicted_margin"`
	PredictedWinner string    `db:"predicted_winner"`
	PredictedAt     time.Time `db:"predicted_at"`
}
