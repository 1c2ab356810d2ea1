package model

import (
	"context"
	"errors"

	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
	"github.com/riskibarqy/afl-match-model/internal/platform/resilience"
)

// Guarded wraps a prediction.Model with a breaker. Cancelled requests do not
// count as model failures.
type Guarded struct {
	next    prediction.Model
	breaker *resilience.Breaker
}

func NewGuarded(next prediction.Model, breaker *resilience.Breaker) *Guarded {
	if breaker == nil {
		breaker = resilience.NewBreaker(resilience.DefaultConfig())
	}
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) Name() string {
	return g.next.Name()
}

func (g *Guarded) FeatureNames() []string {
	return g.next.FeatureNames()
}

func (g *Guarded) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	var out []float64
	err := g.breaker.Execute(func() error {
		var err error
		out, err = g.next.Predict(ctx, rows)
		return err
	}, isCallerCancellation)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Guarded) State() resilience.State {
	return g.breaker.State()
}

func isCallerCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
