package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gocarina/gocsv"

	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
)

const (
	OutcomePredictionsFile = "Outcome_Predictions.csv"
	MarginPredictionsFile  = "Margin_Predictions.csv"
)

type outcomeRecord struct {
	MatchID       string  `csv:"Match_ID"`
	HomeTeam      string  `csv:"Home_Team"`
	AwayTeam      string  `csv:"Away_Team"`
	HomeWinProb   float64 `csv:"Home_Win_Probability"`
	AwayWinProb   float64 `csv:"Away_Win_Probability"`
	PredictedTeam string  `csv:"Predicted_Winner"`
	PredictedAt   string  `csv:"Predicted_At"`
}

type marginRecord struct {
	MatchID         string  `csv:"Match_ID"`
	HomeTeam        string  `csv:"Home_Team"`
	AwayTeam        string  `csv:"Away_Team"`
	PredictedMargin float64 `csv:"Predicted_Margin"`
	PredictedWinner string  `csv:"Predicted_Winner"`
	PredictedAt     string  `csv:"Predicted_At"`
}

// PredictionRepository exports predictions to CSV, one row per match.
type PredictionRepository struct {
	dir string
	mu  sync.Mutex
}

func NewPredictionRepository(dir string) *PredictionRepository {
	return &PredictionRepository{dir: dir}
}

func (r *PredictionRepository) UpsertOutcomes(_ context.Context, items []prediction.Outcome) error {
	if len(items) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.dir, OutcomePredictionsFile)
	var records []*outcomeRecord
	if err := readRecords(path, &records); err != nil {
		return err
	}

	byMatch := make(map[string]*outcomeRecord, len(records)+len(items))
	for _, record := range records {
		byMatch[record.MatchID] = record
	}
	for _, item := range items {
		matchID := strings.TrimSpace(item.MatchID)
		if matchID == "" {
			continue
		}
		byMatch[matchID] = &outcomeRecord{
			MatchID:       matchID,
			HomeTeam:      item.HomeTeam,
			AwayTeam:      item.AwayTeam,
			HomeWinProb:   item.HomeWinProb,
			AwayWinProb:   item.AwayWinProb,
			PredictedTeam: item.PredictedTeam,
			PredictedAt:   item.PredictedAt.UTC().Format(time.RFC3339),
		}
	}

	out := make([]*outcomeRecord, 0, len(byMatch))
	for _, record := range byMatch {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })

	return writeRecords(path, &out)
}

func (r *PredictionRepository) UpsertMargins(_ context.Context, items []prediction.Margin) error {
	if len(items) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.dir, MarginPredictionsFile)
	var records []*marginRecord
	if err := readRecords(path, &records); err != nil {
		return err
	}

	byMatch := make(map[string]*marginRecord, len(records)+len(items))
	for _, record := range records {
		byMatch[record.MatchID] = record
	}
	for _, item := range items {
		matchID := strings.TrimSpace(item.MatchID)
		if matchID == "" {
			continue
		}
		byMatch[matchID] = &marginRecord{
			MatchID:         matchID,
			HomeTeam:        item.HomeTeam,
			AwayTeam:        item.AwayTeam,
			PredictedMargin: item.PredictedMargin,
			PredictedWinner: item.PredictedWinner,
			PredictedAt:     item.PredictedAt.UTC().Format(time.RFC3339),
		}
	}

	out := make([]*marginRecord, 0, len(byMatch))
	for _, record := range byMatch {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })

	return writeRecords(path, &out)
}

func readRecords(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "open %s", filepath.Base(path))
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return errors.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return nil
}

func writeRecords(path string, records any) error {
	return writeFile(path, func(f *os.File) error {
		return errors.Wrapf(gocsv.MarshalFile(records, f), "encode %s", filepath.Base(path))
	})
}
