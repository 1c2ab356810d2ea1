package usecase

import (
	"slices"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/match"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
	"github.com/riskibarqy/afl-match-model/internal/domain/rolling"
)

// side reports whether team is the home or away side of m, or "" when it is neither.
func side(m match.Match, team string) string {
	switch team {
	case m.HomeTeam:
		return "Home"
	case m.AwayTeam:
		return "Away"
	}
	return ""
}

// playerForm builds per-player rolling form over the player and squad stats.
// Dates come from the player rows when present, otherwise from the parsed
// matches; rows whose match cannot be placed on the timeline are left out.
func (a assembler) playerForm(players, table *dataset.Table, matches []match.Match) (*dataset.Table, error) {
	dateByMatch := make(map[string]time.Time, len(matches))
	for i, m := range matches {
		dateByMatch[table.Text(i, ColumnMatchID)] = m.Date
	}

	stats := append([]string(nil), a.cfg.PlayerRollingStats...)
	for _, stat := range a.cfg.SquadStats {
		if !slices.Contains(stats, stat) {
			stats = append(stats, stat)
		}
	}

	observations := make([]rolling.Observation, 0, players.Len())
	sources := make([]int, 0, players.Len())
	for p := 0; p < players.Len(); p++ {
		matchID := players.Text(p, ColumnMatchID)
		player := players.Text(p, ColumnPlayer)
		if player == "" {
			continue
		}
		if _, err := matchid.Parse(matchID, a.cfg.Rounds); err != nil {
			return nil, err
		}
		date, known := dateByMatch[matchID]
		if raw := players.Text(p, ColumnDate); raw != "" {
			parsed, err := match.ParseDate(raw)
			if err != nil {
				return nil, err
			}
			date, known = parsed, true
		}
		if !known {
			continue
		}
		values := make(map[string]float64, len(stats))
		for _, stat := range stats {
			if v, ok := players.Float(p, stat); ok {
				values[stat] = v
			}
		}
		observations = append(observations, rolling.Observation{
			Entity:  player,
			MatchID: matchID,
			Date:    date,
			Values:  values,
		})
		sources = append(sources, p)
	}

	form, err := rolling.EntityFeatures(observations, ColumnPlayer, stats, a.cfg.PlayerRollingWindows, rolling.Options{Parallelism: a.cfg.Parallelism})
	if err != nil {
		return nil, err
	}
	for i, o := range observations {
		form.Set(i, ColumnPlayerMatchKey, dataset.Text(o.MatchKey()))
		form.Set(i, ColumnTeam, players.Get(sources[i], ColumnTeam))
	}
	form.SortBy(ColumnPlayerMatchKey)
	return form, nil
}

// addSquadFeatures sums each side's pre-match player form into
// Home_/Away_Squad_<stat>_<window> and returns the Squad_ bases. A side with
// no player history for a column stays null.
func (a assembler) addSquadFeatures(table *dataset.Table, matches []match.Match, form *dataset.Table) []string {
	if len(a.cfg.SquadStats) == 0 {
		return nil
	}

	columns := make([]string, 0, len(a.cfg.SquadStats)*len(a.cfg.PlayerRollingWindows))
	for _, stat := range a.cfg.SquadStats {
		for _, w := range a.cfg.PlayerRollingWindows {
			columns = append(columns, rolling.ColumnName(stat, w))
		}
	}

	type total struct {
		sum float64
		ok  bool
	}
	home := make([]map[string]total, len(matches))
	away := make([]map[string]total, len(matches))
	rowByMatch := table.Index(ColumnMatchID)

	for i := 0; i < form.Len(); i++ {
		row, ok := rowByMatch[form.Text(i, ColumnMatchID)]
		if !ok {
			continue
		}
		var sums *map[string]total
		switch side(matches[row], form.Text(i, ColumnTeam)) {
		case "Home":
			sums = &home[row]
		case "Away":
			sums = &away[row]
		default:
			continue
		}
		if *sums == nil {
			*sums = make(map[string]total, len(columns))
		}
		for _, column := range columns {
			if v, ok := form.Float(i, column); ok {
				(*sums)[column] = total{sum: (*sums)[column].sum + v, ok: true}
			}
		}
	}

	bases := make([]string, 0, len(columns))
	for _, column := range columns {
		base := "Squad_" + column
		for row := range matches {
			h, w := home[row][column], away[row][column]
			table.Set(row, "Home_"+base, dataset.NumberOrNull(h.sum, h.ok))
			table.Set(row, "Away_"+base, dataset.NumberOrNull(w.sum, w.ok))
		}
		bases = append(bases, base)
	}
	return bases
}
