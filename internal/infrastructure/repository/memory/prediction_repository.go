package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
)

type PredictionRepository struct {
	mu       sync.RWMutex
	outcomes map[string]prediction.Outcome
	margins  map[string]prediction.Margin
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{
		outcomes: make(map[string]prediction.Outcome),
		margins:  make(map[string]prediction.Margin),
	}
}

func (r *PredictionRepository) UpsertOutcomes(_ context.Context, items []prediction.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		matchID := strings.TrimSpace(item.MatchID)
		if matchID == "" {
			continue
		}
		r.outcomes[matchID] = item
	}

	return nil
}

func (r *PredictionRepository) UpsertMargins(_ context.Context, items []prediction.Margin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		matchID := strings.TrimSpace(item.MatchID)
		if matchID == "" {
			continue
		}
		r.margins[matchID] = item
	}

	return nil
}

// Outcomes lists stored outcome predictions ordered by match id.
func (r *PredictionRepository) Outcomes() []prediction.Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Outcome, 0, len(r.outcomes))
	for _, item := range r.outcomes {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })

	return out
}

func (r *PredictionRepository) Margins() []prediction.Margin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Margin, 0, len(r.margins))
	for _, item := range r.margins {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })

	return out
}
