package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/interfaces/httpapi"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
	"github.com/riskibarqy/afl-match-model/internal/usecase"
)

// Container holds the services shared by the API server and the batch
// feature build.
type Container struct {
	Features    *usecase.FeatureService
	Predictions *usecase.PredictionService
	Models      Models

	logger  *logging.Logger
	closers []func() error
}

// Build wires repositories, models and services for cfg.
func Build(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	featureCfg, err := cfg.FeatureConfig()
	if err != nil {
		return nil, fmt.Errorf("resolve feature config: %w", err)
	}

	c := &Container{logger: logger}
	repos, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, repos.close)

	models, err := loadModels(cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Models = models

	c.Features = usecase.NewFeatureService(repos.datasets, repos.venues, featureCfg, logger)
	c.Predictions = usecase.NewPredictionService(
		repos.datasets,
		models.outcomeModel(),
		models.marginModel(),
		repos.predictions,
		featureCfg,
		logger,
	)

	logger.Info("application wired",
		"dataset_backend", cfg.DatasetBackend,
		"cache_enabled", cfg.CacheEnabled,
		"outcome_model", models.Outcome != nil,
		"margin_model", models.Margin != nil,
		"output_dataset", featureCfg.OutputDataset,
	)
	return c, nil
}

// Close releases backend resources in reverse wiring order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func NewHTTPServer(cfg config.Config, c *Container, logger *logging.Logger) (*http.Server, error) {
	if c == nil {
		return nil, fmt.Errorf("application container is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	handler := httpapi.NewHandler(c.Features, c.Predictions, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterOptions{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
