package app

import (
	"fmt"

	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
	"github.com/riskibarqy/afl-match-model/internal/infrastructure/model"
	"github.com/riskibarqy/afl-match-model/internal/infrastructure/model/xgboost"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
	"github.com/riskibarqy/afl-match-model/internal/platform/resilience"
)

const (
	outcomeModelName = "outcome-xgb"
	marginModelName  = "margin-xgb"
)

// Models holds the optional inference models. A nil field means the model
// path was not configured.
type Models struct {
	Outcome *model.Guarded
	Margin  *model.Guarded
}

func loadModels(cfg config.Config, logger *logging.Logger) (Models, error) {
	breakerCfg := resilience.Config{
		FailureThreshold: cfg.ModelBreakerFailures,
		OpenTimeout:      cfg.ModelBreakerOpenTimeout,
	}

	var out Models
	var err error
	if out.Outcome, err = loadModel(outcomeModelName, cfg.OutcomeModelPath, breakerCfg, logger); err != nil {
		return Models{}, err
	}
	if out.Margin, err = loadModel(marginModelName, cfg.MarginModelPath, breakerCfg, logger); err != nil {
		return Models{}, err
	}
	return out, nil
}

func loadModel(name, path string, breakerCfg resilience.Config, logger *logging.Logger) (*model.Guarded, error) {
	if path == "" {
		logger.Info("model disabled", "model", name, "reason", "path empty")
		return nil, nil
	}

	booster, err := xgboost.Load(name, path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	logger.Info("model loaded", "model", name, "path", path, "features", len(booster.FeatureNames()))
	return model.NewGuarded(booster, resilience.NewBreaker(breakerCfg)), nil
}

// outcomeModel keeps a missing model as a nil interface.
func (m Models) outcomeModel() prediction.Model {
	if m.Outcome == nil {
		return nil
	}
	return m.Outcome
}

func (m Models) marginModel() prediction.Model {
	if m.Margin == nil {
		return nil
	}
	return m.Margin
}
