package usecase

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/elo"
	"github.com/riskibarqy/afl-match-model/internal/domain/match"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
	"github.com/riskibarqy/afl-match-model/internal/domain/rolling"
	"github.com/riskibarqy/afl-match-model/internal/domain/venue"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

type assemblyInput struct {
	matchTables []*dataset.Table
	players     *dataset.Table
	locator     *venue.Locator
}

type assemblyOutput struct {
	table              *dataset.Table
	eloRatings         map[string]float64
	expectedEloRatings map[string]float64
	ignoredPlayerRows  int
	rollingStats       []string
	playerTable        *dataset.Table
}

// assembler runs the pure part of a feature build over materialised tables.
type assembler struct {
	cfg    FeatureConfig
	logger *logging.Logger
}

func (a assembler) run(in assemblyInput) (assemblyOutput, error) {
	table, err := reconcileProviders(in.matchTables)
	if err != nil {
		return assemblyOutput{}, err
	}

	matches, err := a.parseMatches(table)
	if err != nil {
		return assemblyOutput{}, err
	}
	addScoreFeatures(table, matches)

	out := assemblyOutput{}
	var squadBases []string
	if in.players != nil {
		out.ignoredPlayerRows = a.addTeamAggregates(table, matches, in.players)
		out.playerTable, err = a.playerForm(in.players, table, matches)
		if err != nil {
			return assemblyOutput{}, err
		}
		squadBases = a.addSquadFeatures(table, matches, out.playerTable)
	}
	addExpectedFeatures(table)
	if in.locator != nil {
		addDistanceFeatures(table, matches, in.locator)
	}

	out.eloRatings, err = a.addEloStream(table, matches, "ELO", "Home_Margin")
	if err != nil {
		return assemblyOutput{}, err
	}
	if table.Has(a.cfg.ExpectedMarginColumn) {
		out.expectedEloRatings, err = a.addEloStream(table, matches, "xELO", a.cfg.ExpectedMarginColumn)
		if err != nil {
			return assemblyOutput{}, err
		}
	} else {
		a.logger.Warn("expected margin column missing, skipping xELO", "column", a.cfg.ExpectedMarginColumn)
	}

	out.rollingStats, err = a.addRollingFeatures(table, matches)
	if err != nil {
		return assemblyOutput{}, err
	}

	bases := rolling.DiffBases(out.rollingStats, a.cfg.RollingWindows)
	bases = append(bases, squadBases...)
	bases = append(bases, a.cfg.DiffFeatures...)
	addHomeAwayDerived(table, bases)

	table.SortBy(ColumnMatchID)
	out.table = table
	return out, nil
}

// reconcileProviders starts from the first provider and left-joins in only
// the columns later providers add.
func reconcileProviders(tables []*dataset.Table) (*dataset.Table, error) {
	if len(tables) == 0 || tables[0] == nil {
		return nil, errors.New("no match tables to assemble")
	}
	if !tables[0].Has(ColumnMatchID) {
		return nil, errors.Wrapf(dataset.ErrMissingJoinKey, "primary match table has no %q column", ColumnMatchID)
	}

	base := tables[0].Clone()
	for i, other := range tables[1:] {
		if other == nil {
			continue
		}
		merged, err := dataset.LeftJoinMissing(base, other, ColumnMatchID)
		if err != nil {
			return nil, errors.Wrapf(err, "merge provider %d", i+1)
		}
		base = merged
	}
	return base, nil
}

func (a assembler) parseMatches(table *dataset.Table) ([]match.Match, error) {
	matches := make([]match.Match, table.Len())
	for i := range matches {
		raw := table.Text(i, ColumnMatchID)
		id, err := matchid.Parse(raw, a.cfg.Rounds)
		if err != nil {
			return nil, err
		}
		date, err := match.ParseDate(table.Text(i, ColumnDate))
		if err != nil {
			return nil, errors.Wrapf(match.ErrNonChronologicalInput, "match %s: %v", raw, err)
		}

		home := table.Text(i, ColumnHomeTeam)
		if home == "" {
			home = id.HomeTeam
			table.Set(i, ColumnHomeTeam, dataset.Text(home))
		}
		away := table.Text(i, ColumnAwayTeam)
		if away == "" {
			away = id.AwayTeam
			table.Set(i, ColumnAwayTeam, dataset.Text(away))
		}
		table.Set(i, ColumnYear, dataset.Number(float64(id.Season)))
		table.Set(i, ColumnRound, dataset.Number(float64(id.Round)))

		m := match.Match{
			ID:       id,
			Date:     date,
			Venue:    table.Text(i, ColumnVenue),
			HomeTeam: home,
			AwayTeam: away,
		}
		if line := table.Text(i, ColumnScore); line != "" {
			homeScore, awayScore, err := match.ParseScoreLine(line)
			if err != nil {
				return nil, errors.Wrapf(err, "match %s", raw)
			}
			m.HomeScore, m.AwayScore = &homeScore, &awayScore
		}
		matches[i] = m
	}
	return matches, nil
}

func addScoreFeatures(table *dataset.Table, matches []match.Match) {
	for i, m := range matches {
		if !m.Played() {
			continue
		}
		for _, side := range []struct {
			role  string
			score match.Score
		}{{"Home", *m.HomeScore}, {"Away", *m.AwayScore}} {
			table.Set(i, side.role+"_Score", dataset.Number(float64(side.score.Total)))
			table.Set(i, side.role+"_Goals", dataset.Number(float64(side.score.Goals)))
			table.Set(i, side.role+"_Behinds", dataset.Number(float64(side.score.Behinds)))
			table.Set(i, side.role+"_Scoring_Shots", dataset.Number(float64(side.score.ScoringShots())))
			table.Set(i, side.role+"_Goal_Conversion", dataset.NumberOrNull(side.score.GoalConversion()))
		}

		margin, _ := m.Margin()
		table.Set(i, "Margin", dataset.Number(margin))
		table.Set(i, "Home_Margin", dataset.Number(margin))
		table.Set(i, "Away_Margin", dataset.Number(-margin))

		homeWin, _ := m.HomeWin()
		awayWin := 0.0
		if margin < 0 {
			awayWin = 1
		}
		table.Set(i, "Home_Win", dataset.Number(homeWin))
		table.Set(i, "Away_Win", dataset.Number(awayWin))
	}
}

// addTeamAggregates sums player rows into Home_/Away_ team columns and their
// _Margin companions. Columns already supplied by a match provider win.
func (a assembler) addTeamAggregates(table *dataset.Table, matches []match.Match, players *dataset.Table) int {
	stats := a.cfg.PlayerStats
	if len(stats) == 0 {
		stats = numericColumns(players, ColumnMatchID, ColumnTeam, ColumnPlayer, ColumnHomeTeam, ColumnAwayTeam, ColumnYear, ColumnRound, ColumnDate)
	}

	type sideSums map[string]float64
	home := make([]sideSums, len(matches))
	away := make([]sideSums, len(matches))
	rowByMatch := table.Index(ColumnMatchID)

	ignored := 0
	for p := 0; p < players.Len(); p++ {
		row, ok := rowByMatch[players.Text(p, ColumnMatchID)]
		if !ok {
			ignored++
			continue
		}
		var sums *sideSums
		switch side(matches[row], players.Text(p, ColumnTeam)) {
		case "Home":
			sums = &home[row]
		case "Away":
			sums = &away[row]
		default:
			ignored++
			continue
		}
		if *sums == nil {
			*sums = make(sideSums, len(stats))
		}
		for _, stat := range stats {
			if v, ok := players.Float(p, stat); ok {
				(*sums)[stat] += v
			}
		}
	}
	if ignored > 0 {
		a.logger.Warn("player rows matched no fixture side", "rows", ignored)
	}

	existing := make(map[string]bool, len(stats)*4)
	for _, stat := range stats {
		for _, column := range []string{"Home_" + stat, "Away_" + stat, "Home_" + stat + "_Margin", "Away_" + stat + "_Margin"} {
			existing[column] = table.Has(column)
		}
	}
	set := func(row int, column string, v dataset.Value) {
		if !existing[column] {
			table.Set(row, column, v)
		}
	}

	for row := range matches {
		for _, stat := range stats {
			h, hok := home[row][stat]
			w, wok := away[row][stat]
			set(row, "Home_"+stat, dataset.NumberOrNull(h, hok))
			set(row, "Away_"+stat, dataset.NumberOrNull(w, wok))
			set(row, "Home_"+stat+"_Margin", dataset.NumberOrNull(h-w, hok && wok))
			set(row, "Away_"+stat+"_Margin", dataset.NumberOrNull(w-h, hok && wok))
		}
	}
	return ignored
}

func addExpectedFeatures(table *dataset.Table) {
	if !table.Has("Home_xScore") || !table.Has("Away_xScore") || table.Has("Home_xMargin") {
		return
	}
	for i := 0; i < table.Len(); i++ {
		h, hok := table.Float(i, "Home_xScore")
		w, wok := table.Float(i, "Away_xScore")
		table.Set(i, "Home_xMargin", dataset.NumberOrNull(h-w, hok && wok))
		table.Set(i, "Away_xMargin", dataset.NumberOrNull(w-h, hok && wok))
	}
}

func addDistanceFeatures(table *dataset.Table, matches []match.Match, locator *venue.Locator) {
	for i, m := range matches {
		table.Set(i, "Home_Distance_Travelled", dataset.NumberOrNull(locator.TravelKM(m.HomeTeam, m.Venue)))
		table.Set(i, "Away_Distance_Travelled", dataset.NumberOrNull(locator.TravelKM(m.AwayTeam, m.Venue)))
	}
}

// addEloStream runs one rating stream driven by marginColumn and writes the
// pre-match ratings and probabilities under prefix.
func (a assembler) addEloStream(table *dataset.Table, matches []match.Match, prefix, marginColumn string) (map[string]float64, error) {
	engine, err := elo.NewEngine(a.cfg.Elo)
	if err != nil {
		return nil, err
	}

	inputs := make([]elo.Input, len(matches))
	for i, m := range matches {
		margin, ok := table.Float(i, marginColumn)
		inputs[i] = elo.Input{
			MatchID:   m.MatchKey(),
			Date:      m.Date,
			HomeTeam:  m.HomeTeam,
			AwayTeam:  m.AwayTeam,
			Margin:    margin,
			HasMargin: ok,
		}
	}

	result, err := engine.RunSequence(inputs)
	if err != nil {
		return nil, fmt.Errorf("%s stream: %w", prefix, err)
	}
	for i, m := range matches {
		snapshot := result.Snapshots[m.MatchKey()]
		table.Set(i, "Home_"+prefix, dataset.Number(snapshot.HomeRating))
		table.Set(i, "Away_"+prefix, dataset.Number(snapshot.AwayRating))
		table.Set(i, "Home_"+prefix+"_probs", dataset.Number(snapshot.HomeWinProb))
		table.Set(i, "Away_"+prefix+"_probs", dataset.Number(snapshot.AwayWinProb))
	}
	return result.Ratings, nil
}

func (a assembler) addRollingFeatures(table *dataset.Table, matches []match.Match) ([]string, error) {
	stats := make([]string, 0, len(a.cfg.RollingStats))
	missing := make([]string, 0)
	for _, stat := range a.cfg.RollingStats {
		if table.Has("Home_"+stat) && table.Has("Away_"+stat) {
			stats = append(stats, stat)
			continue
		}
		missing = append(missing, stat)
	}
	if len(missing) > 0 {
		a.logger.Warn("rolling stats without team columns skipped", "stats", strings.Join(missing, ","))
	}
	if len(stats) == 0 || len(a.cfg.RollingWindows) == 0 {
		return stats, nil
	}

	fixtures := make([]rolling.Fixture, len(matches))
	for i, m := range matches {
		f := rolling.Fixture{
			MatchID:  m.MatchKey(),
			Date:     m.Date,
			HomeTeam: m.HomeTeam,
			AwayTeam: m.AwayTeam,
			Home:     make(map[string]float64, len(stats)),
			Away:     make(map[string]float64, len(stats)),
		}
		for _, stat := range stats {
			if v, ok := table.Float(i, "Home_"+stat); ok {
				f.Home[stat] = v
			}
			if v, ok := table.Float(i, "Away_"+stat); ok {
				f.Away[stat] = v
			}
		}
		fixtures[i] = f
	}

	features, err := rolling.TeamFeatures(fixtures, stats, a.cfg.RollingWindows, rolling.Options{Parallelism: a.cfg.Parallelism})
	if err != nil {
		return nil, err
	}
	columns := rolling.TeamColumns(stats, a.cfg.RollingWindows)
	for i := range matches {
		for _, column := range columns {
			table.Set(i, column, features.Get(i, column))
		}
	}
	return stats, nil
}

// addHomeAwayDerived writes <f>_diff and <f>_ratio for every base that has
// both a Home_ and an Away_ column.
func addHomeAwayDerived(table *dataset.Table, bases []string) {
	seen := make(map[string]struct{}, len(bases))
	for _, base := range bases {
		if _, dup := seen[base]; dup {
			continue
		}
		seen[base] = struct{}{}

		homeColumn, awayColumn := "Home_"+base, "Away_"+base
		if !table.Has(homeColumn) || !table.Has(awayColumn) {
			continue
		}
		for i := 0; i < table.Len(); i++ {
			h, hok := table.Float(i, homeColumn)
			w, wok := table.Float(i, awayColumn)
			table.Set(i, base+"_diff", dataset.NumberOrNull(Diff(h, w), hok && wok))
			table.Set(i, base+"_ratio", dataset.NumberOrNull(Ratio(h, w), hok && wok))
		}
	}
}

// Diff is home minus away.
func Diff(home, away float64) float64 {
	return home - away
}

// Ratio is home over away, defined as 0 when away is 0.
func Ratio(home, away float64) float64 {
	if away == 0 {
		return 0
	}
	return home / away
}

func numericColumns(table *dataset.Table, exclude ...string) []string {
	out := make([]string, 0)
	for _, column := range table.Columns() {
		if slices.Contains(exclude, column) {
			continue
		}
		for i := 0; i < table.Len(); i++ {
			v := table.Get(i, column)
			if v.IsNull() {
				continue
			}
			if v.Kind() == dataset.KindNumber {
				out = append(out, column)
			}
			break
		}
	}
	return out
}
