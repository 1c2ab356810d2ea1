package usecase

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/match"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
)

// Sentinels returned by the services. The transport layer maps them to
// status codes; the wrapped domain error stays reachable through errors.Is.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// classifyFeatureError tags data contract violations as ErrInvalidInput.
// Anything else is returned unchanged.
func classifyFeatureError(err error) error {
	if err == nil || errors.Is(err, ErrInvalidInput) {
		return err
	}
	switch {
	case errors.Is(err, matchid.ErrMalformedIdentifier),
		errors.Is(err, dataset.ErrMissingJoinKey),
		errors.Is(err, match.ErrNonChronologicalInput),
		errors.Is(err, match.ErrMalformedScore):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
