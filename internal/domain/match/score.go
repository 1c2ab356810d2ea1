package match

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var ErrMalformedScore = errors.New("malformed score")

// ParseScoreLine parses "g.b.t - g.b.t" into home and away scores.
func ParseScoreLine(raw string) (Score, Score, error) {
	parts := strings.Split(strings.TrimSpace(raw), " - ")
	if len(parts) != 2 {
		return Score{}, Score{}, errors.Wrapf(ErrMalformedScore, "%q is not a home - away score line", raw)
	}

	home, err := ParseScore(parts[0])
	if err != nil {
		return Score{}, Score{}, err
	}
	away, err := ParseScore(parts[1])
	if err != nil {
		return Score{}, Score{}, err
	}
	return home, away, nil
}

// ParseScore parses "g.b.t". A two-part "g.b" form derives the total.
func ParseScore(raw string) (Score, error) {
	fields := strings.Split(strings.TrimSpace(raw), ".")
	if len(fields) != 2 && len(fields) != 3 {
		return Score{}, errors.Wrapf(ErrMalformedScore, "%q is not goals.behinds.total", raw)
	}

	values := make([]int, len(fields))
	for i, field := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || v < 0 {
			return Score{}, errors.Wrapf(ErrMalformedScore, "%q has invalid component %q", raw, field)
		}
		values[i] = v
	}

	score := Score{Goals: values[0], Behinds: values[1]}
	if len(values) == 3 {
		score.Total = values[2]
	} else {
		score.Total = score.Goals*6 + score.Behinds
	}
	return score, nil
}
