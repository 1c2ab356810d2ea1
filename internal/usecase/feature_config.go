package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/domain/elo"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
	"github.com/riskibarqy/afl-match-model/internal/domain/rolling"
)

const (
	ColumnMatchID  = "Match_ID"
	ColumnDate     = "Date"
	ColumnVenue    = "Venue"
	ColumnHomeTeam = "Home_Team"
	ColumnAwayTeam = "Away_Team"
	ColumnScore    = "Q4_Score"
	ColumnTeam     = "Team"
	ColumnPlayer   = "Player"
	ColumnYear     = "Year"
	ColumnRound    = "Round"

	// ColumnPlayerMatchKey uniquely identifies a player row in the player feature dataset.
	ColumnPlayerMatchKey = "Player_Match_ID"
)

// FeatureConfig drives one feature build.
type FeatureConfig struct {
	MatchDatasets        []string
	PlayerDataset        string
	OutputDataset        string
	PlayerOutputDataset  string
	Rounds               matchid.RoundTable
	Elo                  elo.Config
	ExpectedMarginColumn string
	PlayerStats          []string
	RollingStats         []string
	RollingWindows       []rolling.Window
	PlayerRollingStats   []string
	PlayerRollingWindows []rolling.Window
	SquadStats           []string
	DiffFeatures         []string
	Parallelism          int
	LoadWorkers          int
	LoadTimeout          time.Duration
}

// DefaultRollingStats are the team statistics carried into For/Against form.
var DefaultRollingStats = []string{
	"Behinds",
	"Disposals",
	"Dream_Team_Points",
	"Effective_Disposals",
	"Effective_Kicks",
	"ELO",
	"Goals",
	"Handballs",
	"Inside_50s",
	"Kicks",
	"Margin",
	"Marks",
	"Metres_Gained",
	"Rating_Points",
	"Score",
	"Scoring_Shots",
	"Shots_At_Goal",
	"Win",
	"AFL_Fantasy_Points",
	"Super_Coach_Points",
	"Player_Rating_Points",
	"Brownlow_Votes",
	"Coaches_Votes",
	"xScore",
	"xT_created",
	"xT_denied",
	"vaep_value",
	"offensive_value",
	"defensive_value",
	"exp_vaep_value",
	"exp_offensive_value",
	"exp_defensive_value",
	"xMargin",
	"xVAEP_Margin",
}

// DefaultSquadStats are the player form columns summed over each side's
// selected players.
var DefaultSquadStats = []string{"xScore", "exp_vaep_value"}

var DefaultPlayerRollingStats = []string{
	"Disposals",
	"Kicks",
	"Handballs",
	"Marks",
	"Goals",
	"Behinds",
	"Tackles",
	"Inside_50s",
	"Metres_Gained",
	"AFL_Fantasy_Points",
	"Super_Coach_Points",
	"xScore",
}

func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		MatchDatasets: []string{
			"AFL_API_Matches",
			"Fryzigg_Match_Summary",
			"Footywire_Match_Summary",
			"AFLTables_Match_Summary",
		},
		PlayerDataset:        "Player_Stats_Enriched",
		OutputDataset:        "Match_Outcome_Features",
		PlayerOutputDataset:  "Player_Stats_Rolling",
		Rounds:               matchid.DefaultRoundTable(),
		Elo:                  elo.DefaultConfig(),
		ExpectedMarginColumn: "Home_xScore_Margin",
		RollingStats:         append([]string(nil), DefaultRollingStats...),
		RollingWindows:       []rolling.Window{rolling.EWM(5), rolling.EWM(10)},
		PlayerRollingStats:   append([]string(nil), DefaultPlayerRollingStats...),
		PlayerRollingWindows: []rolling.Window{rolling.Mean(5), rolling.Mean(10), rolling.EWM(5), rolling.EWM(10)},
		SquadStats:           append([]string(nil), DefaultSquadStats...),
		DiffFeatures:         []string{"ELO", "ELO_probs", "xELO", "xELO_probs", "Distance_Travelled"},
		Parallelism:          4,
		LoadWorkers:          4,
		LoadTimeout:          30 * time.Second,
	}
}

func (c FeatureConfig) Validate() error {
	if len(c.MatchDatasets) == 0 {
		return fmt.Errorf("at least one match dataset is required")
	}
	for _, name := range c.MatchDatasets {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("match dataset names cannot be empty")
		}
	}
	if strings.TrimSpace(c.OutputDataset) == "" {
		return fmt.Errorf("output dataset is required")
	}
	for _, w := range append(append([]rolling.Window(nil), c.RollingWindows...), c.PlayerRollingWindows...) {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if c.Elo.KFactor < 0 || c.Elo.InitialRating < 0 {
		return fmt.Errorf("elo k factor and initial rating must be >= 0")
	}
	if c.LoadWorkers < 0 || c.Parallelism < 0 {
		return fmt.Errorf("workers and parallelism must be >= 0")
	}
	return nil
}
