package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
	qb "github.com/riskibarqy/afl-match-model/internal/platform/querybuilder"
)

var (
	outcomeUpsertSuffix = qb.OnConflictUpdate(
		[]string{"match_id"},
		[]string{"home_team", "away_team", "home_win_prob", "away_win_prob", "predicted_team", "predicted_at"},
		"updated_at = NOW()",
	)
	marginUpsertSuffix = qb.OnConflictUpdate(
		[]string{"match_id"},
		[]string{"home_team", "away_team", "predicted_margin", "predicted_winner", "predicted_at"},
		"updated_at = NOW()",
	)
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) UpsertOutcomes(ctx context.Context, items []prediction.Outcome) error {
	rows := make([]outcomePredictionInsertModel, 0, len(items))
	for _, item := range latestByMatch(items, func(o prediction.Outcome) string { return o.MatchID }) {
		rows = append(rows, outcomePredictionInsertModel{
			MatchID:       item.MatchID,
			HomeTeam:      item.HomeTeam,
			AwayTeam:      item.AwayTeam,
			HomeWinProb:   item.HomeWinProb,
			AwayWinProb:   item.AwayWinProb,
			PredictedTeam: item.PredictedTeam,
			PredictedAt:   item.PredictedAt.UTC(),
		})
	}
	return upsertPredictionRows(ctx, r.db, "match_outcome_predictions", rows, outcomeUpsertSuffix)
}

func (r *PredictionRepository) UpsertMargins(ctx context.Context, items []prediction.Margin) error {
	rows := make([]marginPredictionInsertModel, 0, len(items))
	for _, item := range latestByMatch(items, func(m prediction.Margin) string { return m.MatchID }) {
		rows = append(rows, marginPredictionInsertModel{
			MatchID:         item.MatchID,
			HomeTeam:        item.HomeTeam,
			AwayTeam:        item.AwayTeam,
			PredictedMargin: item.PredictedMargin,
			PredictedWinner: item.PredictedWinner,
			PredictedAt:     item.PredictedAt.UTC(),
		})
	}
	return upsertPredictionRows(ctx, r.db, "match_margin_predictions", rows, marginUpsertSuffix)
}

// upsertPredictionRows writes rows in multi-row batches inside one
// transaction.
func upsertPredictionRows[T any](ctx context.Context, db *sqlx.DB, table string, rows []T, suffix string) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert %s: %w", table, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(rows); start += rowBatchSize {
		end := min(start+rowBatchSize, len(rows))
		query, args, err := qb.InsertModels(table, rows[start:end], suffix)
		if err != nil {
			return fmt.Errorf("build upsert %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s [%d:%d]: %w", table, start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert %s tx: %w", table, err)
	}
	return nil
}

// latestByMatch drops earlier duplicates so one statement never touches the
// same conflict key twice.
func latestByMatch[T any](items []T, key func(T) string) []T {
	position := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := position[k]; ok {
			out[i] = item
			continue
		}
		position[k] = len(out)
		out = append(out, item)
	}
	return out
}
