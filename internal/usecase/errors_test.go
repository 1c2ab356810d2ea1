package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/match"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
)

func TestClassifyFeatureError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name        string
		err         error
		wantInvalid bool
	}{
		{name: "nil", err: nil},
		{name: "malformed id", err: fmt.Errorf("row 3: %w", matchid.ErrMalformedIdentifier), wantInvalid: true},
		{name: "missing join key", err: dataset.ErrMissingJoinKey, wantInvalid: true},
		{name: "non chronological", err: match.ErrNonChronologicalInput, wantInvalid: true},
		{name: "malformed score", err: match.ErrMalformedScore, wantInvalid: true},
		{name: "other", err: boom},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := classifyFeatureError(tc.err)
			if errors.Is(got, ErrInvalidInput) != tc.wantInvalid {
				t.Fatalf("classify(%v) = %v, want invalid=%v", tc.err, got, tc.wantInvalid)
			}
			if tc.err != nil && !errors.Is(got, tc.err) {
				t.Fatalf("expected original error to stay wrapped, got %v", got)
			}
		})
	}
}

func TestClassifyFeatureError_AlreadyClassified(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: %w", ErrInvalidInput, dataset.ErrMissingJoinKey)
	if got := classifyFeatureError(err); got != err {
		t.Fatalf("expected error to pass through unchanged, got %v", got)
	}
}

func TestStartUsecaseSpan_NoParent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gotCtx, span := startUsecaseSpan(ctx, "usecase.Test")
	if gotCtx != ctx {
		t.Fatalf("expected context to be returned unchanged without a parent span")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected a no-op span")
	}

	err := errors.New("boom")
	if got := recordSpanError(trace.SpanFromContext(ctx), err); got != err {
		t.Fatalf("recordSpanError should return its input")
	}
}
