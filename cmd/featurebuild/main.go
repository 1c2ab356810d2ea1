package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/riskibarqy/afl-match-model/internal/app"
	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/observability"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
	"github.com/riskibarqy/afl-match-model/internal/usecase"
)

const predictBatchSize = 500

func main() {
	persist := flag.Bool("persist", true, "write the feature tables to the dataset backend")
	players := flag.Bool("players", true, "build rolling player features")
	predict := flag.Bool("predict", false, "predict unplayed matches after the build")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Fields: []any{"service", cfg.ServiceName, "job", "featurebuild"},
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *persist, *players, *predict); err != nil {
		logger.Error("feature build failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger, persist, players, predict bool) error {
	if predict && !persist {
		return errors.New("-predict needs -persist so the model can read the new features")
	}

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("shutdown uptrace", "error", err)
		}
	}()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	result, err := container.Features.Build(ctx, usecase.BuildRequest{
		Persist:        persist,
		IncludePlayers: players,
	})
	if err != nil {
		return err
	}

	logger.Info("feature build summary",
		"run_id", result.RunID,
		"matches", result.Matches,
		"columns", result.Columns,
		"player_rows", result.PlayerRows,
		"ignored_player_rows", result.IgnoredPlayerRows,
		"teams", len(result.EloRatings),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	if !predict {
		return nil
	}
	return predictUnplayed(ctx, container, result.Table, logger)
}

// predictUnplayed runs every configured model over matches without a result.
func predictUnplayed(ctx context.Context, container *app.Container, table *dataset.Table, logger *logging.Logger) error {
	ids := unplayedMatchIDs(table)
	if len(ids) == 0 {
		logger.Info("no unplayed matches to predict")
		return nil
	}

	for start := 0; start < len(ids); start += predictBatchSize {
		end := min(start+predictBatchSize, len(ids))
		batch := ids[start:end]

		if container.Models.Outcome != nil {
			outcomes, err := container.Predictions.PredictOutcome(ctx, batch)
			if err != nil {
				return fmt.Errorf("predict outcomes: %w", err)
			}
			for _, o := range outcomes {
				logger.Info("outcome prediction", "match_id", o.MatchID, "home_win_probability", o.HomeWinProb, "predicted_winner", o.PredictedTeam)
			}
		}
		if container.Models.Margin != nil {
			margins, err := container.Predictions.PredictMargin(ctx, batch)
			if err != nil {
				return fmt.Errorf("predict margins: %w", err)
			}
			for _, m := range margins {
				logger.Info("margin prediction", "match_id", m.MatchID, "predicted_margin", m.PredictedMargin, "predicted_winner", m.PredictedWinner)
			}
		}
	}
	return nil
}

func unplayedMatchIDs(table *dataset.Table) []string {
	if table == nil {
		return nil
	}

	var out []string
	for i := 0; i < table.Len(); i++ {
		if _, played := table.Float(i, "Home_Margin"); played {
			continue
		}
		if id := strings.TrimSpace(table.Text(i, usecase.ColumnMatchID)); id != "" {
			out = append(out, id)
		}
	}
	return out
}
