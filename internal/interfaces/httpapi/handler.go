package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
	"github.com/riskibarqy/afl-match-model/internal/usecase"
)

type Handler struct {
	featureService    *usecase.FeatureService
	predictionService *usecase.PredictionService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	featureService *usecase.FeatureService,
	predictionService *usecase.PredictionService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		featureService:    featureService,
		predictionService: predictionService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) BuildFeatures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BuildFeatures")
	defer span.End()

	var req buildFeaturesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.featureService.Build(ctx, usecase.BuildRequest{
		Persist:        boolOrDefault(req.Persist, true),
		IncludePlayers: boolOrDefault(req.IncludePlayers, true),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "feature build failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, buildResultToDTO(result))
}

func (h *Handler) GetLastFeatureRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLastFeatureRun")
	defer span.End()

	result, ok := h.featureService.LastRun()
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no feature build has completed yet", usecase.ErrNotFound))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, buildResultToDTO(result))
}

func (h *Handler) GetMatchFeatures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchFeatures")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	row, err := h.featureService.GetMatchFeatures(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match features failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchFeaturesDTO{
		MatchID:  matchID,
		Features: row,
	})
}

func (h *Handler) PredictOutcome(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PredictOutcome")
	defer span.End()

	ids, err := h.decodePredictRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.predictionService.PredictOutcome(ctx, ids)
	if err != nil {
		h.logger.WarnContext(ctx, "predict outcome failed", "matches", len(ids), "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]outcomePredictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, outcomePredictionDTO{
			MatchID:         item.MatchID,
			HomeTeam:        item.HomeTeam,
			AwayTeam:        item.AwayTeam,
			HomeWinProb:     item.HomeWinProb,
			AwayWinProb:     item.AwayWinProb,
			PredictedWinner: item.PredictedTeam,
			PredictedAt:     item.PredictedAt.UTC(),
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) PredictMargin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PredictMargin")
	defer span.End()

	ids, err := h.decodePredictRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.predictionService.PredictMargin(ctx, ids)
	if err != nil {
		h.logger.WarnContext(ctx, "predict margin failed", "matches", len(ids), "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]marginPredictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, marginPredictionDTO{
			MatchID:         item.MatchID,
			HomeTeam:        item.HomeTeam,
			AwayTeam:        item.AwayTeam,
			PredictedMargin: item.PredictedMargin,
			PredictedWinner: item.PredictedWinner,
			PredictedAt:     item.PredictedAt.UTC(),
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

// decodePredictRequest accepts either a single match_id or a match_ids list.
func (h *Handler) decodePredictRequest(ctx context.Context, r *http.Request) ([]string, error) {
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := h.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	ids := req.MatchIDs
	if id := strings.TrimSpace(req.MatchID); id != "" {
		ids = append([]string{id}, ids...)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: match_id or match_ids is required", usecase.ErrInvalidInput)
	}
	return ids, nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

type buildFeaturesRequest struct {
	Persist        *bool `json:"persist"`
	IncludePlayers *bool `json:"include_players"`
}

type predictRequest struct {
	MatchID  string   `json:"match_id" validate:"omitempty,max=200"`
	MatchIDs []string `json:"match_ids" validate:"omitempty,max=500,dive,required"`
}

type buildResultDTO struct {
	RunID              string             `json:"run_id"`
	Matches            int                `json:"matches"`
	Columns            int                `json:"columns"`
	PlayerRows         int                `json:"player_rows"`
	IgnoredPlayerRows  int                `json:"ignored_player_rows"`
	EloRatings         map[string]float64 `json:"elo_ratings"`
	ExpectedEloRatings map[string]float64 `json:"expected_elo_ratings"`
	StartedAt          time.Time          `json:"started_at"`
	FinishedAt         time.Time          `json:"finished_at"`
	DurationMS         int64              `json:"duration_ms"`
}

func buildResultToDTO(result usecase.BuildResult) buildResultDTO {
	return buildResultDTO{
		RunID:              result.RunID,
		Matches:            result.Matches,
		Columns:            result.Columns,
		PlayerRows:         result.PlayerRows,
		IgnoredPlayerRows:  result.IgnoredPlayerRows,
		EloRatings:         result.EloRatings,
		ExpectedEloRatings: result.ExpectedEloRatings,
		StartedAt:          result.StartedAt.UTC(),
		FinishedAt:         result.FinishedAt.UTC(),
		DurationMS:         result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	}
}

type matchFeaturesDTO struct {
	MatchID  string `json:"match_id"`
	Features any    `json:"features"`
}

type outcomePredictionDTO struct {
	MatchID         string    `json:"match_id"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	HomeWinProb     float64   `json:"home_win_probability"`
	AwayWinProb     float64   `json:"away_win_probability"`
	PredictedWinner string    `json:"predicted_winner"`
	PredictedAt     time.Time `json:"predicted_at"`
}

type marginPredictionDTO struct {
	MatchID         string    `json:"match_id"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	PredictedMargin float64   `json:"predicted_margin"`
	PredictedWinner string    `json:"predicted_winner"`
	PredictedAt     time.Time `json:"predicted_at"`
}
