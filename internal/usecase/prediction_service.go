package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

const maxPredictBatch = 500

type PredictionService struct {
	datasets    dataset.Repository
	outcome     prediction.Model
	margin      prediction.Model
	predictions prediction.Repository
	cfg         FeatureConfig
	logger      *logging.Logger
	now         func() time.Time
}

// NewPredictionService wires the inference models. Any of outcome, margin or
// predictions may be nil; the matching operation then reports
// ErrDependencyUnavailable or skips persistence.
func NewPredictionService(
	datasets dataset.Repository,
	outcome prediction.Model,
	margin prediction.Model,
	predictions prediction.Repository,
	cfg FeatureConfig,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		datasets:    datasets,
		outcome:     outcome,
		margin:      margin,
		predictions: predictions,
		cfg:         cfg,
		logger:      logger.With("component", "prediction_service"),
		now:         time.Now,
	}
}

func (s *PredictionService) PredictOutcome(ctx context.Context, matchIDs []string) ([]prediction.Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.PredictOutcome",
		attribute.Int("requested", len(matchIDs)),
	)
	defer span.End()

	rows, values, err := s.predict(ctx, s.outcome, matchIDs)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	at := s.now().UTC()
	out := make([]prediction.Outcome, 0, len(rows))
	for i, row := range rows {
		p := values[i]
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: model %s returned probability %v", ErrDependencyUnavailable, s.outcome.Name(), p)
		}
		out = append(out, prediction.NewOutcome(
			row.Get(ColumnMatchID).String(),
			row.Get(ColumnHomeTeam).String(),
			row.Get(ColumnAwayTeam).String(),
			p,
			at,
		))
	}

	if s.predictions != nil {
		if err := s.predictions.UpsertOutcomes(ctx, out); err != nil {
			return nil, fmt.Errorf("%w: store outcome predictions: %v", ErrDependencyUnavailable, err)
		}
	}
	s.logger.InfoContext(ctx, "outcome predictions served", "model", s.outcome.Name(), "count", len(out))
	return out, nil
}

func (s *PredictionService) PredictMargin(ctx context.Context, matchIDs []string) ([]prediction.Margin, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.PredictMargin",
		attribute.Int("requested", len(matchIDs)),
	)
	defer span.End()

	rows, values, err := s.predict(ctx, s.margin, matchIDs)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	at := s.now().UTC()
	out := make([]prediction.Margin, 0, len(rows))
	for i, row := range rows {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, fmt.Errorf("%w: model %s returned margin %v", ErrDependencyUnavailable, s.margin.Name(), values[i])
		}
		out = append(out, prediction.NewMargin(
			row.Get(ColumnMatchID).String(),
			row.Get(ColumnHomeTeam).String(),
			row.Get(ColumnAwayTeam).String(),
			values[i],
			at,
		))
	}

	if s.predictions != nil {
		if err := s.predictions.UpsertMargins(ctx, out); err != nil {
			return nil, fmt.Errorf("%w: store margin predictions: %v", ErrDependencyUnavailable, err)
		}
	}
	s.logger.InfoContext(ctx, "margin predictions served", "model", s.margin.Name(), "count", len(out))
	return out, nil
}

// predict resolves feature rows for the requested matches and runs the model
// over vectors laid out in the model's feature order.
func (s *PredictionService) predict(ctx context.Context, model prediction.Model, matchIDs []string) ([]dataset.Row, []float64, error) {
	if model == nil {
		return nil, nil, fmt.Errorf("%w: model is not configured", ErrDependencyUnavailable)
	}

	ids, err := s.normalizeIDs(matchIDs)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]dataset.Row, 0, len(ids))
	for _, id := range ids {
		row, ok, err := s.datasets.Get(ctx, s.cfg.OutputDataset, ColumnMatchID, id)
		if err != nil && !errors.Is(err, dataset.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: get features: %v", ErrDependencyUnavailable, err)
		}
		if err != nil || !ok {
			return nil, nil, fmt.Errorf("%w: features for match %s", ErrNotFound, id)
		}
		rows = append(rows, row)
	}

	names := model.FeatureNames()
	vectors := make([][]float64, len(rows))
	for i, row := range rows {
		vectors[i] = FeatureVector(row, names)
	}

	values, err := model.Predict(ctx, vectors)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: model %s: %w", ErrDependencyUnavailable, model.Name(), err)
	}
	if len(values) != len(rows) {
		return nil, nil, fmt.Errorf("%w: model %s returned %d values for %d rows", ErrDependencyUnavailable, model.Name(), len(values), len(rows))
	}
	return rows, values, nil
}

func (s *PredictionService) normalizeIDs(matchIDs []string) ([]string, error) {
	if len(matchIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one match id is required", ErrInvalidInput)
	}
	if len(matchIDs) > maxPredictBatch {
		return nil, fmt.Errorf("%w: at most %d match ids per request", ErrInvalidInput, maxPredictBatch)
	}

	seen := make(map[string]struct{}, len(matchIDs))
	out := make([]string, 0, len(matchIDs))
	for _, raw := range matchIDs {
		id := strings.TrimSpace(raw)
		if _, err := matchid.Parse(id, s.cfg.Rounds); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// FeatureVector lays a feature row out in the given column order. Absent and
// non-numeric cells become NaN.
func FeatureVector(row dataset.Row, names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = row.Get(name).FloatOrNaN()
	}
	return out
}
