package rolling

import (
	"fmt"
	"math"

	"github.com/sourcegraph/conc/iter"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
)

// Options tunes how an arena is evaluated.
type Options struct {
	// Parallelism bounds how many entity series are evaluated at once; values
	// below 2 evaluate sequentially.
	Parallelism int
}

// Arena holds one ordered series per entity. Each appended observation is an
// entry; outputs are addressed by entry index so results line up with the
// caller's rows without label joins.
type Arena struct {
	byEntity map[string]*series
	entities []*series
	entries  int
}

type series struct {
	entity  string
	entries []int
	values  []map[string]float64
}

func NewArena() *Arena {
	return &Arena{byEntity: make(map[string]*series)}
}

// Append records the next observation for entity and returns its entry index.
// Observations for one entity must be appended in chronological order. A stat
// that is absent from values is treated as unobserved for that entry.
func (a *Arena) Append(entity string, values map[string]float64) int {
	s, ok := a.byEntity[entity]
	if !ok {
		s = &series{entity: entity}
		a.byEntity[entity] = s
		a.entities = append(a.entities, s)
	}
	entry := a.entries
	a.entries++
	s.entries = append(s.entries, entry)
	s.values = append(s.values, values)
	return entry
}

func (a *Arena) Len() int {
	return a.entries
}

func (a *Arena) Entities() int {
	return len(a.entities)
}

// Output holds shifted rolling values per entry.
type Output struct {
	columns []string
	index   map[string]int
	values  [][]dataset.Value
	prior   []int
}

func (o *Output) Columns() []string {
	return append([]string(nil), o.columns...)
}

func (o *Output) Value(entry int, column string) dataset.Value {
	idx, ok := o.index[column]
	if !ok || entry < 0 || entry >= len(o.values) {
		return dataset.Null()
	}
	return o.values[entry][idx]
}

// Prior is the number of earlier appearances the entity had before entry.
func (o *Output) Prior(entry int) int {
	if entry < 0 || entry >= len(o.prior) {
		return 0
	}
	return o.prior[entry]
}

// ColumnName is the output column for a stat and window.
func ColumnName(stat string, w Window) string {
	return stat + "_" + w.Suffix()
}

// Compute evaluates every (stat, window) pair for every entry. The value for
// an entry only sees observations appended before it for the same entity.
func (a *Arena) Compute(stats []string, windows []Window, opts Options) (*Output, error) {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}

	out := &Output{
		index:  make(map[string]int, len(stats)*len(windows)),
		values: make([][]dataset.Value, a.entries),
		prior:  make([]int, a.entries),
	}
	for _, stat := range stats {
		for _, w := range windows {
			name := ColumnName(stat, w)
			if _, dup := out.index[name]; dup {
				return nil, fmt.Errorf("duplicate rolling column %q", name)
			}
			out.index[name] = len(out.columns)
			out.columns = append(out.columns, name)
		}
	}
	for i := range out.values {
		out.values[i] = make([]dataset.Value, len(out.columns))
	}

	evaluate := func(s *series) {
		for pos, entry := range s.entries {
			out.prior[entry] = pos
		}
		for _, stat := range stats {
			history := make([]float64, 0, len(s.entries))
			for pos, entry := range s.entries {
				for _, w := range windows {
					v, ok := w.apply(history)
					out.values[entry][out.index[ColumnName(stat, w)]] = dataset.NumberOrNull(v, ok)
				}
				if observed, ok := s.values[pos][stat]; ok && !math.IsNaN(observed) {
					history = append(history, observed)
				}
			}
		}
	}

	if opts.Parallelism > 1 {
		it := iter.Iterator[*series]{MaxGoroutines: opts.Parallelism}
		it.ForEach(a.entities, func(s **series) { evaluate(*s) })
		return out, nil
	}
	for _, s := range a.entities {
		evaluate(s)
	}
	return out, nil
}
