package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/afl-match-model/internal/domain/rolling"
	"github.com/riskibarqy/afl-match-model/internal/usecase"
)

// Pipeline is the optional YAML description of a feature build. Blank
// fields keep the built-in defaults.
type Pipeline struct {
	MatchDatasets       []string `yaml:"match_datasets"`
	PlayerDataset       *string  `yaml:"player_dataset"`
	OutputDataset       string   `yaml:"output_dataset"`
	PlayerOutputDataset string   `yaml:"player_output_dataset"`

	Elo struct {
		KFactor              float64 `yaml:"k_factor"`
		InitialRating        float64 `yaml:"initial_rating"`
		ExpectedMarginColumn string  `yaml:"expected_margin_column"`
	} `yaml:"elo"`

	PlayerStats          []string `yaml:"player_stats"`
	RollingStats         []string `yaml:"rolling_stats"`
	RollingWindows       []string `yaml:"rolling_windows"`
	PlayerRollingStats   []string `yaml:"player_rolling_stats"`
	PlayerRollingWindows []string `yaml:"player_rolling_windows"`
	SquadStats           []string `yaml:"squad_stats"`
	DiffFeatures         []string `yaml:"diff_features"`

	// FinalsOverrides remaps round codes per season, e.g. {2020: {F1: 19}}.
	FinalsOverrides map[int]map[string]int `yaml:"finals_overrides"`
}

// LoadPipeline reads path after expanding ${VAR} references.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}

	var p Pipeline
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &p); err != nil {
		return nil, fmt.Errorf("parse pipeline yaml: %w", err)
	}
	return &p, nil
}

// FeatureConfig overlays the pipeline on base and validates the result.
func (p *Pipeline) FeatureConfig(base usecase.FeatureConfig) (usecase.FeatureConfig, error) {
	cfg := base
	if p == nil {
		return cfg, cfg.Validate()
	}

	if names := trimAll(p.MatchDatasets); len(names) > 0 {
		cfg.MatchDatasets = names
	}
	if p.PlayerDataset != nil {
		cfg.PlayerDataset = strings.TrimSpace(*p.PlayerDataset)
	}
	if v := strings.TrimSpace(p.OutputDataset); v != "" {
		cfg.OutputDataset = v
	}
	if v := strings.TrimSpace(p.PlayerOutputDataset); v != "" {
		cfg.PlayerOutputDataset = v
	}

	if p.Elo.KFactor != 0 {
		cfg.Elo.KFactor = p.Elo.KFactor
	}
	if p.Elo.InitialRating != 0 {
		cfg.Elo.InitialRating = p.Elo.InitialRating
	}
	if v := strings.TrimSpace(p.Elo.ExpectedMarginColumn); v != "" {
		cfg.ExpectedMarginColumn = v
	}

	if stats := trimAll(p.PlayerStats); len(stats) > 0 {
		cfg.PlayerStats = stats
	}
	if stats := trimAll(p.RollingStats); len(stats) > 0 {
		cfg.RollingStats = stats
	}
	if stats := trimAll(p.PlayerRollingStats); len(stats) > 0 {
		cfg.PlayerRollingStats = stats
	}
	if stats := trimAll(p.SquadStats); len(stats) > 0 {
		cfg.SquadStats = stats
	}
	if features := trimAll(p.DiffFeatures); len(features) > 0 {
		cfg.DiffFeatures = features
	}

	var err error
	if len(p.RollingWindows) > 0 {
		if cfg.RollingWindows, err = parseWindows("rolling_windows", p.RollingWindows); err != nil {
			return usecase.FeatureConfig{}, err
		}
	}
	if len(p.PlayerRollingWindows) > 0 {
		if cfg.PlayerRollingWindows, err = parseWindows("player_rolling_windows", p.PlayerRollingWindows); err != nil {
			return usecase.FeatureConfig{}, err
		}
	}

	for season, overrides := range p.FinalsOverrides {
		if season <= 0 {
			return usecase.FeatureConfig{}, fmt.Errorf("finals_overrides: invalid season %d", season)
		}
		for code, ordinal := range overrides {
			if ordinal < 0 {
				return usecase.FeatureConfig{}, fmt.Errorf("finals_overrides: %d/%s has negative ordinal", season, code)
			}
		}
		cfg.Rounds = cfg.Rounds.WithSeason(season, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return usecase.FeatureConfig{}, fmt.Errorf("validate pipeline: %w", err)
	}
	return cfg, nil
}

// FeatureConfig resolves the build configuration from the environment
// and the optional pipeline file.
func (c Config) FeatureConfig() (usecase.FeatureConfig, error) {
	base := c.baseFeatureConfig()
	if c.PipelineConfigPath == "" {
		return base, base.Validate()
	}
	pipeline, err := LoadPipeline(c.PipelineConfigPath)
	if err != nil {
		return usecase.FeatureConfig{}, err
	}
	return pipeline.FeatureConfig(base)
}

func (c Config) baseFeatureConfig() usecase.FeatureConfig {
	base := usecase.DefaultFeatureConfig()
	base.Parallelism = c.FeatureParallelism
	base.LoadWorkers = c.DatasetLoadWorkers
	base.LoadTimeout = c.DatasetLoadTimeout
	return base
}

func parseWindows(field string, raw []string) ([]rolling.Window, error) {
	out := make([]rolling.Window, 0, len(raw))
	for _, item := range raw {
		w, err := rolling.ParseWindow(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
