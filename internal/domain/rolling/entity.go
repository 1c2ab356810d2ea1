package rolling

import (
	"time"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/match"
)

// Observation is one entity's statistics for one match, e.g. a player row.
type Observation struct {
	Entity  string
	MatchID string
	Date    time.Time
	Values  map[string]float64
}

func (o Observation) MatchKey() string {
	return o.MatchID + "/" + o.Entity
}

func (o Observation) MatchDate() time.Time {
	return o.Date
}

// GamesPlayedColumn counts an entity's earlier appearances.
const GamesPlayedColumn = "Games_Played"

// EntityFeatures computes rolling features per entity. Row i of the returned
// table belongs to observations[i] and carries Match_ID, entityColumn,
// Games_Played and one column per (stat, window).
func EntityFeatures(observations []Observation, entityColumn string, stats []string, windows []Window, opts Options) (*dataset.Table, error) {
	order, err := match.Chronological(observations)
	if err != nil {
		return nil, err
	}

	arena := NewArena()
	entries := make([]int, len(observations))
	for _, idx := range order {
		o := observations[idx]
		entries[idx] = arena.Append(o.Entity, o.Values)
	}

	out, err := arena.Compute(stats, windows, opts)
	if err != nil {
		return nil, err
	}

	table := dataset.NewTable(append([]string{"Match_ID", entityColumn, GamesPlayedColumn}, out.Columns()...)...)
	for i, o := range observations {
		row := dataset.Row{
			"Match_ID":        dataset.Text(o.MatchID),
			entityColumn:      dataset.Text(o.Entity),
			GamesPlayedColumn: dataset.Number(float64(out.Prior(entries[i]))),
		}
		for _, column := range out.Columns() {
			row[column] = out.Value(entries[i], column)
		}
		table.AppendRow(row)
	}
	return table, nil
}
