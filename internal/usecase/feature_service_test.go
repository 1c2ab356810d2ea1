package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
	"github.com/riskibarqy/afl-match-model/internal/domain/rolling"
	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
	datasetmock "github.com/riskibarqy/afl-match-model/internal/mocks/domain/dataset"
	venuemock "github.com/riskibarqy/afl-match-model/internal/mocks/domain/venue"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

const (
	roundOneID = "AFLM_2024_01_Carlton_Richmond"
	roundTwoID = "AFLM_2024_02_Richmond_Carlton"
)

func testFeatureConfig() FeatureConfig {
	cfg := DefaultFeatureConfig()
	cfg.MatchDatasets = []string{"primary", "secondary"}
	cfg.PlayerDataset = ""
	cfg.OutputDataset = "features"
	cfg.PlayerOutputDataset = "player_features"
	cfg.RollingStats = []string{"Score"}
	cfg.RollingWindows = []rolling.Window{rolling.Mean(1)}
	cfg.PlayerRollingStats = []string{"Disposals"}
	cfg.PlayerRollingWindows = []rolling.Window{rolling.Mean(1)}
	cfg.Parallelism = 1
	cfg.LoadWorkers = 2
	return cfg
}

// primaryMatches lists round two before round one to exercise the final sort.
func primaryMatches() *dataset.Table {
	return dataset.FromRows([]dataset.Row{
		{
			ColumnMatchID: dataset.Text(roundTwoID),
			ColumnDate:    dataset.Text("2024-03-21"),
			ColumnVenue:   dataset.Text("MCG"),
			ColumnScore:   dataset.Text("12.10.82 - 9.7.61"),
		},
		{
			ColumnMatchID: dataset.Text(roundOneID),
			ColumnDate:    dataset.Text("2024-03-14"),
			ColumnVenue:   dataset.Text("MCG"),
			ColumnScore:   dataset.Text("10.5.65 - 8.8.56"),
		},
	}, ColumnMatchID)
}

func newTestFeatureService(t *testing.T, datasets dataset.Repository, venues venue.Repository, cfg FeatureConfig) *FeatureService {
	t.Helper()
	return NewFeatureService(datasets, venues, cfg, logging.NewNop())
}

func rowByID(t *testing.T, table *dataset.Table, id string) int {
	t.Helper()
	row, ok := table.Index(ColumnMatchID)[id]
	if !ok {
		t.Fatalf("match %s missing from output", id)
	}
	return row
}

func mustFloat(t *testing.T, table *dataset.Table, row int, column string) float64 {
	t.Helper()
	v, ok := table.Float(row, column)
	if !ok {
		t.Fatalf("expected numeric %s at row %d, got %q", column, row, table.Text(row, column))
	}
	return v
}

func TestFeatureService_Build_AssemblesSortedFeatures(t *testing.T) {
	t.Parallel()

	repo := datasetmock.NewRepository(t)
	repo.On("Load", mock.Anything, "primary").Return(primaryMatches(), nil).Once()
	repo.On("Load", mock.Anything, "secondary").Return(nil, dataset.ErrNotFound).Once()

	service := newTestFeatureService(t, repo, nil, testFeatureConfig())
	result, err := service.Build(context.Background(), BuildRequest{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	table := result.Table
	if table.Len() != 2 {
		t.Fatalf("unexpected match count: %d", table.Len())
	}
	if table.Text(0, ColumnMatchID) != roundOneID || table.Text(1, ColumnMatchID) != roundTwoID {
		t.Fatalf("rows are not sorted by match id: %s, %s", table.Text(0, ColumnMatchID), table.Text(1, ColumnMatchID))
	}

	first := rowByID(t, table, roundOneID)
	if got := table.Text(first, ColumnHomeTeam); got != "Carlton" {
		t.Fatalf("home team should come from the identifier, got %q", got)
	}
	if got := mustFloat(t, table, first, "Home_Margin"); got != 9 {
		t.Fatalf("unexpected home margin: %v", got)
	}
	if got := mustFloat(t, table, first, "Home_ELO"); got != 1500 {
		t.Fatalf("first match should see seed ratings, got %v", got)
	}
	if got := mustFloat(t, table, first, "Home_ELO_probs"); got != 0.5 {
		t.Fatalf("unexpected seed probability: %v", got)
	}
	if got := mustFloat(t, table, first, ColumnRound); got != 1 {
		t.Fatalf("unexpected round ordinal: %v", got)
	}

	second := rowByID(t, table, roundTwoID)
	home := mustFloat(t, table, second, "Home_ELO")
	away := mustFloat(t, table, second, "Away_ELO")
	if home != 1484 || away != 1516 {
		t.Fatalf("unexpected pre-match ratings: home=%v away=%v", home, away)
	}
	if got := mustFloat(t, table, second, "ELO_diff"); got != home-away {
		t.Fatalf("ELO_diff should be home minus away, got %v", got)
	}
	if got := mustFloat(t, table, second, "ELO_ratio"); math.Abs(got-home/away) > 1e-12 {
		t.Fatalf("unexpected ELO_ratio: %v", got)
	}

	forColumn := rolling.TeamColumn("Home", "Score", "For", rolling.Mean(1))
	if got := mustFloat(t, table, second, forColumn); got != 56 {
		t.Fatalf("Richmond's prior score should carry into %s, got %v", forColumn, got)
	}
	if !table.Get(first, forColumn).IsNull() {
		t.Fatalf("first match has no history, got %q", table.Text(first, forColumn))
	}

	if result.EloRatings["Richmond"] <= result.EloRatings["Carlton"] {
		t.Fatalf("Richmond's upset win should move it ahead: %v", result.EloRatings)
	}
	if last, ok := service.LastRun(); !ok || last.RunID != result.RunID {
		t.Fatalf("last run not recorded")
	}
}

func TestFeatureService_Build_SecondaryProviderFillsMissingColumns(t *testing.T) {
	t.Parallel()

	secondary := dataset.FromRows([]dataset.Row{
		{
			ColumnMatchID: dataset.Text(roundOneID),
			ColumnVenue:   dataset.Text("Docklands"),
			"Home_xScore":  dataset.Number(70.5),
			"Away_xScore":  dataset.Number(60),
		},
	}, ColumnMatchID)

	repo := datasetmock.NewRepository(t)
	repo.On("Load", mock.Anything, "primary").Return(primaryMatches(), nil).Once()
	repo.On("Load", mock.Anything, "secondary").Return(secondary, nil).Once()

	result, err := newTestFeatureService(t, repo, nil, testFeatureConfig()).Build(context.Background(), BuildRequest{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	table := result.Table
	first := rowByID(t, table, roundOneID)
	if got := table.Text(first, ColumnVenue); got != "MCG" {
		t.Fatalf("primary venue must win, got %q", got)
	}
	if got := mustFloat(t, table, first, "Home_xMargin"); got != 10.5 {
		t.Fatalf("unexpected expected margin: %v", got)
	}

	second := rowByID(t, table, roundTwoID)
	if !table.Get(second, "Home_xScore").IsNull() {
		t.Fatalf("row absent from secondary provider should stay null")
	}
}

func TestFeatureService_Build_AggregatesPlayersAndPersists(t *testing.T) {
	t.Parallel()

	players := dataset.FromRows([]dataset.Row{
		{ColumnMatchID: dataset.Text(roundOneID), ColumnTeam: dataset.Text("Carlton"), ColumnPlayer: dataset.Text("Cripps"), "Disposals": dataset.Number(30)},
		{ColumnMatchID: dataset.Text(roundOneID), ColumnTeam: dataset.Text("Carlton"), ColumnPlayer: dataset.Text("Walsh"), "Disposals": dataset.Number(25)},
		{ColumnMatchID: dataset.Text(roundOneID), ColumnTeam: dataset.Text("Richmond"), ColumnPlayer: dataset.Text("Prestia"), "Disposals": dataset.Number(20)},
		{ColumnMatchID: dataset.Text(roundOneID), ColumnTeam: dataset.Text("Essendon"), ColumnPlayer: dataset.Text("Merrett"), "Disposals": dataset.Number(28)},
		{ColumnMatchID: dataset.Text(roundTwoID), ColumnTeam: dataset.Text("Carlton"), ColumnPlayer: dataset.Text("Cripps"), "Disposals": dataset.Number(34)},
		{ColumnMatchID: dataset.Text("AFLM_2024_03_Carlton_Essendon"), ColumnTeam: dataset.Text("Carlton"), ColumnPlayer: dataset.Text("Cripps"), "Disposals": dataset.Number(31)},
	}, ColumnMatchID)

	cfg := testFeatureConfig()
	cfg.MatchDatasets = []string{"primary"}
	cfg.PlayerDataset = "players"
	cfg.PlayerStats = []string{"Disposals"}

	repo := datasetmock.NewRepository(t)
	repo.On("Load", mock.Anything, "primary").Return(primaryMatches(), nil).Once()
	repo.On("Load", mock.Anything, "players").Return(players, nil).Once()
	repo.On("Save", mock.Anything, "features", mock.AnythingOfType("*dataset.Table"), ColumnMatchID).Return(nil).Once()
	repo.On("Save", mock.Anything, "player_features", mock.AnythingOfType("*dataset.Table"), ColumnPlayerMatchKey).Return(nil).Once()

	venues := venuemock.NewRepository(t)
	venues.On("ListVenues", mock.Anything).Return([]venue.Venue{{Name: "MCG", Latitude: -37.8199, Longitude: 144.9834}}, nil).Once()
	venues.On("ListHomeGrounds", mock.Anything).Return([]venue.HomeGround{
		{Team: "Carlton", Venue: "MCG"},
		{Team: "Richmond", Venue: "MCG"},
	}, nil).Once()

	result, err := newTestFeatureService(t, repo, venues, cfg).Build(context.Background(), BuildRequest{Persist: true, IncludePlayers: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if result.IgnoredPlayerRows != 2 {
		t.Fatalf("the Essendon row and the unscheduled match row should be ignored, got %d", result.IgnoredPlayerRows)
	}

	table := result.Table
	first := rowByID(t, table, roundOneID)
	if got := mustFloat(t, table, first, "Home_Disposals"); got != 55 {
		t.Fatalf("unexpected home disposals: %v", got)
	}
	if got := mustFloat(t, table, first, "Away_Disposals_Margin"); got != -35 {
		t.Fatalf("unexpected away disposals margin: %v", got)
	}
	if got := mustFloat(t, table, first, "Distance_Travelled_diff"); got != 0 {
		t.Fatalf("both teams share a home ground, got %v", got)
	}

	second := rowByID(t, table, roundTwoID)
	if !table.Get(second, "Home_Disposals").IsNull() {
		t.Fatalf("Richmond has no player rows in round two")
	}

	if result.PlayerRows != 5 {
		t.Fatalf("expected five player feature rows, got %d", result.PlayerRows)
	}
	key := roundTwoID + "/Cripps"
	row, ok := result.PlayerTable.Index(ColumnPlayerMatchKey)[key]
	if !ok {
		t.Fatalf("player row %s missing", key)
	}
	if got, _ := result.PlayerTable.Float(row, rolling.ColumnName("Disposals", rolling.Mean(1))); got != 30 {
		t.Fatalf("unexpected prior disposals for Cripps: %v", got)
	}
	if got := result.PlayerTable.Text(row, ColumnTeam); got != "Carlton" {
		t.Fatalf("unexpected team on player row: %q", got)
	}
}

func playerRow(matchID, team, player string, stats map[string]float64) dataset.Row {
	row := dataset.Row{
		ColumnMatchID: dataset.Text(matchID),
		ColumnTeam:    dataset.Text(team),
		ColumnPlayer:  dataset.Text(player),
	}
	for stat, v := range stats {
		row[stat] = dataset.Number(v)
	}
	return row
}

func buildWithPlayers(t *testing.T, cfg FeatureConfig, players *dataset.Table) BuildResult {
	t.Helper()

	cfg.MatchDatasets = []string{"primary"}
	cfg.PlayerDataset = "players"

	repo := datasetmock.NewRepository(t)
	repo.On("Load", mock.Anything, "primary").Return(primaryMatches(), nil).Once()
	repo.On("Load", mock.Anything, "players").Return(players, nil).Once()

	result, err := newTestFeatureService(t, repo, nil, cfg).Build(context.Background(), BuildRequest{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return result
}

func TestFeatureService_Build_SquadForm(t *testing.T) {
	t.Parallel()

	players := dataset.FromRows([]dataset.Row{
		playerRow(roundOneID, "Carlton", "Cripps", map[string]float64{"xScore": 10}),
		playerRow(roundOneID, "Carlton", "Walsh", map[string]float64{"xScore": 6}),
		playerRow(roundOneID, "Richmond", "Prestia", map[string]float64{"xScore": 8}),
		playerRow(roundTwoID, "Richmond", "Prestia", map[string]float64{"xScore": 9}),
		playerRow(roundTwoID, "Carlton", "Cripps", map[string]float64{"xScore": 12}),
		playerRow(roundTwoID, "Carlton", "Debutant", map[string]float64{"xScore": 3}),
	}, ColumnMatchID)

	cfg := testFeatureConfig()
	cfg.PlayerStats = []string{"xScore"}
	cfg.SquadStats = []string{"xScore"}
	result := buildWithPlayers(t, cfg, players)

	base := "Squad_" + rolling.ColumnName("xScore", rolling.Mean(1))
	table := result.Table

	first := rowByID(t, table, roundOneID)
	if !table.Get(first, "Home_"+base).IsNull() || !table.Get(first, base+"_diff").IsNull() {
		t.Fatalf("no player has history before round one, got %q", table.Text(first, "Home_"+base))
	}

	second := rowByID(t, table, roundTwoID)
	if got := mustFloat(t, table, second, "Home_"+base); got != 8 {
		t.Fatalf("Richmond's squad should carry Prestia's prior xScore, got %v", got)
	}
	if got := mustFloat(t, table, second, "Away_"+base); got != 10 {
		t.Fatalf("Carlton's squad should sum selected players with history only, got %v", got)
	}
	if got := mustFloat(t, table, second, base+"_diff"); got != -2 {
		t.Fatalf("unexpected squad diff: %v", got)
	}
	if got := mustFloat(t, table, second, base+"_ratio"); math.Abs(got-0.8) > 1e-12 {
		t.Fatalf("unexpected squad ratio: %v", got)
	}
}

func TestFeatureService_Build_ExpectedElo(t *testing.T) {
	t.Parallel()

	t.Run("driven by expected margin", func(t *testing.T) {
		t.Parallel()

		// Carlton wins round one on the scoreboard but loses it on xScore.
		players := dataset.FromRows([]dataset.Row{
			playerRow(roundOneID, "Carlton", "Cripps", map[string]float64{"xScore": 40}),
			playerRow(roundOneID, "Richmond", "Prestia", map[string]float64{"xScore": 70}),
		}, ColumnMatchID)

		cfg := testFeatureConfig()
		cfg.PlayerStats = []string{"xScore"}
		result := buildWithPlayers(t, cfg, players)
		table := result.Table

		first := rowByID(t, table, roundOneID)
		if got := mustFloat(t, table, first, cfg.ExpectedMarginColumn); got != -30 {
			t.Fatalf("unexpected expected margin: %v", got)
		}

		second := rowByID(t, table, roundTwoID)
		eloHome := mustFloat(t, table, second, "Home_ELO")
		xeloHome := mustFloat(t, table, second, "Home_xELO")
		if eloHome >= 1500 || xeloHome <= 1500 {
			t.Fatalf("streams should move in opposite directions: ELO=%v xELO=%v", eloHome, xeloHome)
		}
		if got := mustFloat(t, table, second, "xELO_diff"); got <= 0 {
			t.Fatalf("Richmond should lead on xELO, got diff %v", got)
		}
		if got := mustFloat(t, table, second, "xELO_probs_diff"); got <= 0 {
			t.Fatalf("Richmond should be favoured on xELO, got %v", got)
		}
		if result.ExpectedEloRatings["Richmond"] <= result.ExpectedEloRatings["Carlton"] {
			t.Fatalf("unexpected expected ratings: %v", result.ExpectedEloRatings)
		}
	})

	t.Run("skipped without expected margin", func(t *testing.T) {
		t.Parallel()

		players := dataset.FromRows([]dataset.Row{
			playerRow(roundOneID, "Carlton", "Cripps", map[string]float64{"Disposals": 30}),
			playerRow(roundOneID, "Richmond", "Prestia", map[string]float64{"Disposals": 20}),
		}, ColumnMatchID)

		cfg := testFeatureConfig()
		cfg.PlayerStats = []string{"Disposals"}
		result := buildWithPlayers(t, cfg, players)

		if result.Table.Has("Home_xELO") || result.Table.Has("xELO_probs_diff") {
			t.Fatalf("xELO columns should not be written without %s", cfg.ExpectedMarginColumn)
		}
		if len(result.ExpectedEloRatings) != 0 {
			t.Fatalf("expected no xELO ratings, got %v", result.ExpectedEloRatings)
		}
		if len(result.EloRatings) != 2 {
			t.Fatalf("the ELO stream still runs, got %v", result.EloRatings)
		}
	})
}

func TestFeatureService_Build_RejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		table  *dataset.Table
		target error
	}{
		"missing join key": {
			table:  dataset.FromRows([]dataset.Row{{ColumnDate: dataset.Text("2024-03-14")}}),
			target: dataset.ErrMissingJoinKey,
		},
		"malformed identifier": {
			table: dataset.FromRows([]dataset.Row{{
				ColumnMatchID: dataset.Text("AFLM_2024_Carlton"),
				ColumnDate:    dataset.Text("2024-03-14"),
			}}, ColumnMatchID),
			target: matchid.ErrMalformedIdentifier,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testFeatureConfig()
			cfg.MatchDatasets = []string{"primary"}

			repo := datasetmock.NewRepository(t)
			repo.On("Load", mock.Anything, "primary").Return(tc.table, nil).Once()

			_, err := newTestFeatureService(t, repo, nil, cfg).Build(context.Background(), BuildRequest{})
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v in chain, got %v", tc.target, err)
			}
		})
	}
}

func TestFeatureService_Build_MissingPrimaryProvider(t *testing.T) {
	t.Parallel()

	cfg := testFeatureConfig()
	cfg.MatchDatasets = []string{"primary"}

	repo := datasetmock.NewRepository(t)
	repo.On("Load", mock.Anything, "primary").Return(nil, dataset.ErrNotFound).Once()

	_, err := newTestFeatureService(t, repo, nil, cfg).Build(context.Background(), BuildRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFeatureService_GetMatchFeatures(t *testing.T) {
	t.Parallel()

	repo := datasetmock.NewRepository(t)
	repo.On("Get", mock.Anything, "features", ColumnMatchID, roundOneID).
		Return(dataset.Row{ColumnMatchID: dataset.Text(roundOneID), "ELO_diff": dataset.Number(0)}, true, nil).
		Once()
	repo.On("Get", mock.Anything, "features", ColumnMatchID, roundTwoID).
		Return(nil, false, nil).
		Once()

	service := newTestFeatureService(t, repo, nil, testFeatureConfig())

	row, err := service.GetMatchFeatures(context.Background(), " "+roundOneID+" ")
	if err != nil {
		t.Fatalf("get features: %v", err)
	}
	if got := row.Get(ColumnMatchID).String(); got != roundOneID {
		t.Fatalf("unexpected row: %s", got)
	}

	if _, err := service.GetMatchFeatures(context.Background(), roundTwoID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.GetMatchFeatures(context.Background(), "not-a-match"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDiffAndRatio(t *testing.T) {
	t.Parallel()

	if got := Diff(1516, 1484); got != 32 {
		t.Fatalf("unexpected diff: %v", got)
	}
	if got := Ratio(12, 0); got != 0 {
		t.Fatalf("ratio with zero away should be 0, got %v", got)
	}
	if got := Ratio(12, 4); got != 3 {
		t.Fatalf("unexpected ratio: %v", got)
	}
}
