package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
	datasetmock "github.com/riskibarqy/afl-match-model/internal/mocks/domain/dataset"
	predictionmock "github.com/riskibarqy/afl-match-model/internal/mocks/domain/prediction"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
	"github.com/riskibarqy/afl-match-model/internal/platform/resilience"
	"github.com/riskibarqy/afl-match-model/internal/usecase"
)

const testMatchID = "AFLM_2024_01_Carlton_Richmond"

func newTestRouter(t *testing.T, repo dataset.Repository, outcome *predictionmock.Model) http.Handler {
	t.Helper()

	cfg := usecase.DefaultFeatureConfig()
	features := usecase.NewFeatureService(repo, nil, cfg, logging.NewNop())

	var predictions *usecase.PredictionService
	if outcome != nil {
		predictions = usecase.NewPredictionService(repo, outcome, nil, nil, cfg, logging.NewNop())
	} else {
		predictions = usecase.NewPredictionService(repo, nil, nil, nil, cfg, logging.NewNop())
	}

	handler := NewHandler(features, predictions, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), RouterOptions{InternalJobToken: "secret"})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func errorReason(t *testing.T, body map[string]any) string {
	t.Helper()

	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", body)
	}
	items, _ := errorObj["errors"].([]any)
	if len(items) == 0 {
		t.Fatalf("expected error items, got %v", errorObj)
	}
	item, _ := items[0].(map[string]any)
	reason, _ := item["reason"].(string)
	return reason
}

func TestHandler_GetMatchFeatures(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		repo := datasetmock.NewRepository(t)
		repo.On("Get", mock.Anything, "Match_Outcome_Features", usecase.ColumnMatchID, testMatchID).
			Return(dataset.Row{usecase.ColumnMatchID: dataset.Text(testMatchID), "ELO_diff": dataset.Number(12.5)}, true, nil).
			Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/features/matches/"+testMatchID, nil)
		newTestRouter(t, repo, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
		features, _ := data["features"].(map[string]any)
		if got, _ := features["ELO_diff"].(float64); got != 12.5 {
			t.Fatalf("unexpected ELO_diff: %v", features["ELO_diff"])
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/features/matches/not-a-match", nil)
		newTestRouter(t, datasetmock.NewRepository(t), nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if reason := errorReason(t, decodeEnvelope(t, rec)); reason != "malformedMatchId" {
			t.Fatalf("unexpected reason: %s", reason)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()

		repo := datasetmock.NewRepository(t)
		repo.On("Get", mock.Anything, "Match_Outcome_Features", usecase.ColumnMatchID, testMatchID).
			Return(nil, false, nil).
			Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/features/matches/"+testMatchID, nil)
		newTestRouter(t, repo, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_GetLastFeatureRunBeforeBuild(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/features/runs/last", nil)
	newTestRouter(t, datasetmock.NewRepository(t), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandler_BuildFeaturesRequiresToken(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/features/build", strings.NewReader(`{}`))
	req.Header.Set(internalJobTokenHeader, "wrong")
	newTestRouter(t, datasetmock.NewRepository(t), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandler_PredictOutcome(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		repo := datasetmock.NewRepository(t)
		repo.On("Get", mock.Anything, "Match_Outcome_Features", usecase.ColumnMatchID, testMatchID).
			Return(dataset.Row{
				usecase.ColumnMatchID:  dataset.Text(testMatchID),
				usecase.ColumnHomeTeam: dataset.Text("Carlton"),
				usecase.ColumnAwayTeam: dataset.Text("Richmond"),
				"ELO_diff":             dataset.Number(20),
			}, true, nil).
			Once()

		model := predictionmock.NewModel(t)
		model.On("Name").Return("outcome-xgb").Maybe()
		model.On("FeatureNames").Return([]string{"ELO_diff"}).Once()
		model.On("Predict", mock.Anything, [][]float64{{20}}).Return([]float64{0.7}, nil).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/model/outcome/predict", strings.NewReader(`{"match_id":"`+testMatchID+`"}`))
		newTestRouter(t, repo, model).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		items, _ := decodeEnvelope(t, rec)["data"].([]any)
		if len(items) != 1 {
			t.Fatalf("expected one prediction, got %v", items)
		}
		item, _ := items[0].(map[string]any)
		if item["predicted_winner"] != "Carlton" {
			t.Fatalf("unexpected winner: %v", item["predicted_winner"])
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/model/outcome/predict", strings.NewReader(`{"matches":["x"]}`))
		newTestRouter(t, datasetmock.NewRepository(t), predictionmock.NewModel(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/model/outcome/predict", nil)
		newTestRouter(t, datasetmock.NewRepository(t), predictionmock.NewModel(t)).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("circuit open", func(t *testing.T) {
		t.Parallel()

		repo := datasetmock.NewRepository(t)
		repo.On("Get", mock.Anything, "Match_Outcome_Features", usecase.ColumnMatchID, testMatchID).
			Return(dataset.Row{usecase.ColumnMatchID: dataset.Text(testMatchID)}, true, nil).
			Once()

		model := predictionmock.NewModel(t)
		model.On("Name").Return("outcome-xgb").Maybe()
		model.On("FeatureNames").Return([]string{"ELO_diff"}).Once()
		model.On("Predict", mock.Anything, mock.Anything).Return(nil, resilience.ErrOpen).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/model/outcome/predict", strings.NewReader(`{"match_ids":["`+testMatchID+`"]}`))
		newTestRouter(t, repo, model).ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", rec.Code)
		}
		if reason := errorReason(t, decodeEnvelope(t, rec)); reason != "modelCircuitOpen" {
			t.Fatalf("unexpected reason: %s", reason)
		}
	})
}

func TestHandler_PredictMarginWithoutModel(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/model/margin/predict", strings.NewReader(`{"match_id":"`+testMatchID+`"}`))
	newTestRouter(t, datasetmock.NewRepository(t), nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
