package app

import (
	"context"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
	"github.com/riskibarqy/afl-match-model/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/afl-match-model/internal/infrastructure/repository/csvfile"
	"github.com/riskibarqy/afl-match-model/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/afl-match-model/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/afl-match-model/internal/platform/cache"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

type repositories struct {
	datasets    dataset.Repository
	venues      venue.Repository
	predictions prediction.Repository
	close       func() error
}

func newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var repos repositories

	switch cfg.DatasetBackend {
	case config.BackendCSV:
		repos = repositories{
			datasets:    csvfile.NewDatasetRepository(cfg.DatasetDir),
			venues:      csvfile.NewVenueRepository(cfg.DatasetDir),
			predictions: csvfile.NewPredictionRepository(cfg.DatasetDir),
			close:       func() error { return nil },
		}
	case config.BackendPostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		repos = repositories{
			datasets:    postgres.NewDatasetRepository(db),
			venues:      postgres.NewVenueRepository(db),
			predictions: postgres.NewPredictionRepository(db),
			close:       db.Close,
		}
	default:
		repos = repositories{
			datasets:    memory.NewDatasetRepository(nil),
			venues:      memory.NewVenueRepository(memory.SeedVenues(), memory.SeedHomeGrounds()),
			predictions: memory.NewPredictionRepository(),
			close:       func() error { return nil },
		}
	}

	if !cfg.CacheEnabled || cfg.DatasetBackend == config.BackendMemory {
		return repos, nil
	}

	store := basecache.NewStore(cfg.CacheTTL)
	stopSweep := startCacheSweeper(store, cfg.CacheTTL, logger)
	closeBackend := repos.close
	repos.datasets = cache.NewDatasetRepository(repos.datasets, store)
	repos.venues = cache.NewVenueRepository(repos.venues, store)
	repos.close = func() error {
		stopSweep()
		return closeBackend()
	}
	return repos, nil
}

// startCacheSweeper evicts expired entries every ttl until the returned stop
// function is called. Entries never expire when ttl is zero.
func startCacheSweeper(store *basecache.Store, ttl time.Duration, logger *logging.Logger) func() {
	if ttl <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(ttl)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if evicted := store.Sweep(); evicted > 0 {
					logger.Debug("cache sweep", "evicted", evicted, "entries", store.Stats().Entries)
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
