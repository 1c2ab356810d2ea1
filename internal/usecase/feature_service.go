package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

type BuildRequest struct {
	Persist        bool
	IncludePlayers bool
}

type BuildResult struct {
	RunID              string
	Table              *dataset.Table
	PlayerTable        *dataset.Table
	Matches            int
	Columns            int
	PlayerRows         int
	IgnoredPlayerRows  int
	EloRatings         map[string]float64
	ExpectedEloRatings map[string]float64
	StartedAt          time.Time
	FinishedAt         time.Time
}

type FeatureService struct {
	datasets dataset.Repository
	venues   venue.Repository
	cfg      FeatureConfig
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.RWMutex
	lastRun *BuildResult
}

func NewFeatureService(datasets dataset.Repository, venues venue.Repository, cfg FeatureConfig, logger *logging.Logger) *FeatureService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeatureService{
		datasets: datasets,
		venues:   venues,
		cfg:      cfg,
		logger:   logger.With("component", "feature_service"),
		now:      time.Now,
	}
}

// Build assembles the match feature table from the configured providers and
// optionally persists it.
func (s *FeatureService) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeatureService.Build",
		attribute.Bool("persist", req.Persist),
		attribute.Bool("include_players", req.IncludePlayers),
	)
	defer span.End()

	if err := s.cfg.Validate(); err != nil {
		return BuildResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := BuildResult{RunID: uuid.NewString(), StartedAt: s.now().UTC()}
	logger := s.logger.With("run_id", result.RunID)

	tables, err := s.loadMatchTables(ctx)
	if err != nil {
		return BuildResult{}, err
	}

	var players *dataset.Table
	if s.cfg.PlayerDataset != "" {
		players, err = s.loadOptional(ctx, s.cfg.PlayerDataset)
		if err != nil {
			return BuildResult{}, err
		}
	}

	locator, err := s.loadLocator(ctx)
	if err != nil {
		return BuildResult{}, err
	}

	assembled, err := assembler{cfg: s.cfg, logger: logger}.run(assemblyInput{
		matchTables: tables,
		players:     players,
		locator:     locator,
	})
	if err != nil {
		return BuildResult{}, recordSpanError(span, classifyFeatureError(err))
	}

	result.Table = assembled.table
	result.Matches = assembled.table.Len()
	result.Columns = len(assembled.table.Columns())
	result.IgnoredPlayerRows = assembled.ignoredPlayerRows
	result.EloRatings = assembled.eloRatings
	result.ExpectedEloRatings = assembled.expectedEloRatings

	if req.IncludePlayers && assembled.playerTable != nil {
		result.PlayerTable = assembled.playerTable
		result.PlayerRows = assembled.playerTable.Len()
	}

	if req.Persist {
		if err := s.datasets.Save(ctx, s.cfg.OutputDataset, result.Table, ColumnMatchID); err != nil {
			return BuildResult{}, fmt.Errorf("%w: save %s: %v", ErrDependencyUnavailable, s.cfg.OutputDataset, err)
		}
		if result.PlayerTable != nil && s.cfg.PlayerOutputDataset != "" {
			if err := s.datasets.Save(ctx, s.cfg.PlayerOutputDataset, result.PlayerTable, ColumnPlayerMatchKey); err != nil {
				return BuildResult{}, fmt.Errorf("%w: save %s: %v", ErrDependencyUnavailable, s.cfg.PlayerOutputDataset, err)
			}
		}
	}

	result.FinishedAt = s.now().UTC()
	span.SetAttributes(attribute.Int("matches", result.Matches), attribute.Int("columns", result.Columns))
	logger.InfoContext(ctx, "feature build completed",
		"matches", result.Matches,
		"columns", result.Columns,
		"player_rows", result.PlayerRows,
		"ignored_player_rows", result.IgnoredPlayerRows,
		"rated_teams", len(result.EloRatings),
		"persisted", req.Persist,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)

	s.mu.Lock()
	last := result
	s.lastRun = &last
	s.mu.Unlock()

	return result, nil
}

// LastRun returns the most recent successful build held by this service.
func (s *FeatureService) LastRun() (BuildResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastRun == nil {
		return BuildResult{}, false
	}
	out := *s.lastRun
	out.EloRatings = maps.Clone(out.EloRatings)
	out.ExpectedEloRatings = maps.Clone(out.ExpectedEloRatings)
	return out, true
}

// GetMatchFeatures reads one persisted feature row.
func (s *FeatureService) GetMatchFeatures(ctx context.Context, matchID string) (dataset.Row, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeatureService.GetMatchFeatures")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if _, err := matchid.Parse(matchID, s.cfg.Rounds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	row, ok, err := s.datasets.Get(ctx, s.cfg.OutputDataset, ColumnMatchID, matchID)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			return nil, fmt.Errorf("%w: features for match %s", ErrNotFound, matchID)
		}
		return nil, fmt.Errorf("%w: get features: %v", ErrDependencyUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: features for match %s", ErrNotFound, matchID)
	}
	return row, nil
}

// loadMatchTables loads every provider concurrently and returns them in
// priority order. Only the primary provider is mandatory.
func (s *FeatureService) loadMatchTables(ctx context.Context) ([]*dataset.Table, error) {
	names := s.cfg.MatchDatasets
	tables := make([]*dataset.Table, len(names))
	errs := make([]error, len(names))

	workers := s.cfg.LoadWorkers
	if workers <= 0 || workers > len(names) {
		workers = len(names)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create loader pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			tables[i], errs[i] = s.loadDataset(ctx, name)
		}); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit load of %s: %w", name, err)
		}
	}
	wg.Wait()

	for i, name := range names {
		err := errs[i]
		if err == nil {
			s.logger.DebugContext(ctx, "provider loaded", "dataset", name, "rows", tables[i].Len())
			continue
		}
		if i > 0 && errors.Is(err, dataset.ErrNotFound) {
			s.logger.WarnContext(ctx, "secondary provider missing, skipping", "dataset", name)
			continue
		}
		if errors.Is(err, dataset.ErrNotFound) {
			return nil, fmt.Errorf("%w: dataset %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: load %s: %v", ErrDependencyUnavailable, name, err)
	}
	return tables, nil
}

func (s *FeatureService) loadDataset(ctx context.Context, name string) (*dataset.Table, error) {
	if s.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LoadTimeout)
		defer cancel()
	}
	return s.datasets.Load(ctx, name)
}

func (s *FeatureService) loadOptional(ctx context.Context, name string) (*dataset.Table, error) {
	table, err := s.loadDataset(ctx, name)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			s.logger.WarnContext(ctx, "optional dataset missing", "dataset", name)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: load %s: %v", ErrDependencyUnavailable, name, err)
	}
	return table, nil
}

func (s *FeatureService) loadLocator(ctx context.Context) (*venue.Locator, error) {
	if s.venues == nil {
		return nil, nil
	}
	venues, err := s.venues.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list venues: %v", ErrDependencyUnavailable, err)
	}
	grounds, err := s.venues.ListHomeGrounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list home grounds: %v", ErrDependencyUnavailable, err)
	}
	return venue.NewLocator(venues, grounds), nil
}
