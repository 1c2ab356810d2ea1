package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	predictionmock "github.com/riskibarqy/afl-match-model/internal/mocks/domain/prediction"
	"github.com/riskibarqy/afl-match-model/internal/platform/resilience"
)

func TestGuarded_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	next := predictionmock.NewModel(t)
	next.On("Predict", mock.Anything, mock.Anything).Return(nil, errors.New("booster failed")).Twice()

	guarded := NewGuarded(next, resilience.NewBreaker(resilience.Config{FailureThreshold: 2, OpenTimeout: time.Hour}))

	for i := 0; i < 2; i++ {
		if _, err := guarded.Predict(context.Background(), [][]float64{{1}}); err == nil {
			t.Fatalf("call %d: expected model error", i)
		}
	}
	if guarded.State() != resilience.StateOpen {
		t.Fatalf("expected open breaker, got %s", guarded.State())
	}
	if _, err := guarded.Predict(context.Background(), [][]float64{{1}}); !errors.Is(err, resilience.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestGuarded_IgnoresCancellation(t *testing.T) {
	t.Parallel()

	next := predictionmock.NewModel(t)
	next.On("Name").Return("outcome")
	next.On("Predict", mock.Anything, mock.Anything).Return(nil, context.Canceled).Times(3)

	guarded := NewGuarded(next, resilience.NewBreaker(resilience.Config{FailureThreshold: 1, OpenTimeout: time.Hour}))
	for i := 0; i < 3; i++ {
		if _, err := guarded.Predict(context.Background(), nil); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	}
	if guarded.State() != resilience.StateClosed {
		t.Fatalf("expected closed breaker, got %s", guarded.State())
	}
	if guarded.Name() != "outcome" {
		t.Fatalf("unexpected name: %s", guarded.Name())
	}
}
