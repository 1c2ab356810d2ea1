package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	"github.com/riskibarqy/afl-match-model/internal/domain/match"
	"github.com/riskibarqy/afl-match-model/internal/domain/matchid"
	"github.com/riskibarqy/afl-match-model/internal/platform/resilience"
	"github.com/riskibarqy/afl-match-model/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "afl-match-model"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(_ context.Context, w http.ResponseWriter, status int, payload any) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		status = internalError.HTTPStatus
		body = []byte(`{"apiVersion":"` + googleAPIVersion + `","error":{"code":500,"message":"` + internalErrorMessage + `","status":"INTERNAL"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

// writeError hides the message of unmapped errors from the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(ctx, err)
	message := err.Error()
	if mapped == internalError {
		message = internalErrorMessage
	}
	writeJSON(ctx, w, mapped.HTTPStatus, errorEnvelope(mapped, message))
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeJSON(ctx, w, internalError.HTTPStatus, errorEnvelope(internalError, internalErrorMessage))
}

func errorEnvelope(mapped mappedError, message string) googleResponseEnvelope {
	return googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors: []googleErrorItem{{
				Domain:  errorDomain,
				Reason:  mapped.Reason,
				Message: message,
			}},
		},
	}
}

const internalErrorMessage = "internal server error"

var internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

// errorMappings is checked in order; the first entry with a matching target
// wins, so specific domain errors sit above the usecase sentinels they are
// wrapped in.
var errorMappings = []struct {
	targets []error
	mapped  mappedError
}{
	{
		targets: []error{matchid.ErrMalformedIdentifier},
		mapped:  mappedError{HTTPStatus: http.StatusBadRequest, Reason: "malformedMatchId", Status: "INVALID_ARGUMENT"},
	},
	{
		targets: []error{dataset.ErrMissingJoinKey, match.ErrNonChronologicalInput, match.ErrMalformedScore},
		mapped:  mappedError{HTTPStatus: http.StatusUnprocessableEntity, Reason: "invalidDataset", Status: "FAILED_PRECONDITION"},
	},
	{
		targets: []error{usecase.ErrInvalidInput},
		mapped:  mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput", Status: "INVALID_ARGUMENT"},
	},
	{
		targets: []error{usecase.ErrNotFound},
		mapped:  mappedError{HTTPStatus: http.StatusNotFound, Reason: "notFound", Status: "NOT_FOUND"},
	},
	{
		targets: []error{usecase.ErrUnauthorized},
		mapped:  mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthorized", Status: "UNAUTHENTICATED"},
	},
	{
		targets: []error{resilience.ErrOpen},
		mapped:  mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "modelCircuitOpen", Status: "UNAVAILABLE"},
	},
	{
		targets: []error{usecase.ErrDependencyUnavailable},
		mapped:  mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable", Status: "UNAVAILABLE"},
	},
}

func mapError(_ context.Context, err error) mappedError {
	for _, m := range errorMappings {
		for _, target := range m.targets {
			if errors.Is(err, target) {
				return m.mapped
			}
		}
	}
	return internalError
}
