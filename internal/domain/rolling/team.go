package rolling

import (
	"time"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/match"
)

const (
	sideFor     = "For"
	sideAgainst = "Against"
)

// Fixture carries both sides' statistics for one match. A stat missing from a
// side map is unobserved for that match.
type Fixture struct {
	MatchID  string
	Date     time.Time
	HomeTeam string
	AwayTeam string
	Home     map[string]float64
	Away     map[string]float64
}

func (f Fixture) MatchKey() string {
	return f.MatchID
}

func (f Fixture) MatchDate() time.Time {
	return f.Date
}

// TeamColumn names a reassembled team column, e.g. Home_Score_For_ewm5.
func TeamColumn(role, stat, side string, w Window) string {
	return role + "_" + stat + "_" + side + "_" + w.Suffix()
}

// TeamColumns lists the For/Against columns for both roles in output order.
func TeamColumns(stats []string, windows []Window) []string {
	out := make([]string, 0, len(stats)*len(windows)*4)
	for _, w := range windows {
		for _, stat := range stats {
			out = append(out,
				TeamColumn("Home", stat, sideFor, w),
				TeamColumn("Home", stat, sideAgainst, w),
				TeamColumn("Away", stat, sideFor, w),
				TeamColumn("Away", stat, sideAgainst, w),
			)
		}
	}
	return out
}

// DiffBases lists the role-free feature names (Score_For_ewm5, ...) that
// have both a Home_ and an Away_ column.
func DiffBases(stats []string, windows []Window) []string {
	out := make([]string, 0, len(stats)*len(windows)*2)
	for _, w := range windows {
		for _, stat := range stats {
			out = append(out,
				stat+"_"+sideFor+"_"+w.Suffix(),
				stat+"_"+sideAgainst+"_"+w.Suffix(),
			)
		}
	}
	return out
}

// TeamFeatures computes For/Against rolling features per team and writes them
// back onto the fixtures. Row i of the returned table belongs to fixtures[i].
func TeamFeatures(fixtures []Fixture, stats []string, windows []Window, opts Options) (*dataset.Table, error) {
	order, err := match.Chronological(fixtures)
	if err != nil {
		return nil, err
	}

	arena := NewArena()
	homeEntry := make([]int, len(fixtures))
	awayEntry := make([]int, len(fixtures))
	for _, idx := range order {
		f := fixtures[idx]
		homeEntry[idx] = arena.Append(f.HomeTeam, sideValues(stats, f.Home, f.Away))
		awayEntry[idx] = arena.Append(f.AwayTeam, sideValues(stats, f.Away, f.Home))
	}

	sided := make([]string, 0, len(stats)*2)
	for _, stat := range stats {
		sided = append(sided, stat+"_"+sideFor, stat+"_"+sideAgainst)
	}
	out, err := arena.Compute(sided, windows, opts)
	if err != nil {
		return nil, err
	}

	table := dataset.NewTable(append([]string{"Match_ID"}, TeamColumns(stats, windows)...)...)
	for i, f := range fixtures {
		row := dataset.Row{"Match_ID": dataset.Text(f.MatchID)}
		for _, w := range windows {
			for _, stat := range stats {
				for _, side := range []string{sideFor, sideAgainst} {
					column := ColumnName(stat+"_"+side, w)
					row[TeamColumn("Home", stat, side, w)] = out.Value(homeEntry[i], column)
					row[TeamColumn("Away", stat, side, w)] = out.Value(awayEntry[i], column)
				}
			}
		}
		table.AppendRow(row)
	}
	return table, nil
}

func sideValues(stats []string, own, opponent map[string]float64) map[string]float64 {
	values := make(map[string]float64, len(stats)*2)
	for _, stat := range stats {
		if v, ok := own[stat]; ok {
			values[stat+"_"+sideFor] = v
		}
		if v, ok := opponent[stat]; ok {
			values[stat+"_"+sideAgainst] = v
		}
	}
	return values
}
