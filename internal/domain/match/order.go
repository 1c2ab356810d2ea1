package match

import (
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrNonChronologicalInput = errors.New("match list has no well-defined chronological order")

// Keyed is anything that sits on the match timeline.
type Keyed interface {
	MatchKey() string
	MatchDate() time.Time
}

// Chronological returns the indexes of items ordered by date, then by match key.
// Items without dates are ordered by key alone, which only works when no item
// carries a date.
func Chronological[T Keyed](items []T) ([]int, error) {
	seen := make(map[string]struct{}, len(items))
	keys := make([]string, len(items))
	dated := 0
	for i, item := range items {
		key := strings.TrimSpace(item.MatchKey())
		if key == "" {
			return nil, errors.Wrap(ErrNonChronologicalInput, "match without an identifier")
		}
		if _, ok := seen[key]; ok {
			return nil, errors.Wrapf(ErrNonChronologicalInput, "duplicate match %q", key)
		}
		seen[key] = struct{}{}
		keys[i] = key
		if !item.MatchDate().IsZero() {
			dated++
		}
	}
	if dated != 0 && dated != len(items) {
		return nil, errors.Wrapf(ErrNonChronologicalInput, "%d of %d matches have no date", len(items)-dated, len(items))
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		left, right := items[order[a]], items[order[b]]
		if !left.MatchDate().Equal(right.MatchDate()) {
			return left.MatchDate().Before(right.MatchDate())
		}
		return keys[order[a]] < keys[order[b]]
	})
	return order, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate accepts the date layouts seen across providers. Blank input yields the zero time.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, errors.Newf("unrecognised date %q", raw)
}
