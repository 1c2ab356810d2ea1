package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/domain/prediction"
)

func TestPredictionRepository_UpsertOutcomes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := NewPredictionRepository(dir)
	at := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

	if err := repo.UpsertOutcomes(context.Background(), []prediction.Outcome{
		prediction.NewOutcome("AFLM_2024_02_Richmond_Carlton", "Richmond", "Carlton", 0.4, at),
		prediction.NewOutcome("AFLM_2024_01_Carlton_Richmond", "Carlton", "Richmond", 0.55, at),
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.UpsertOutcomes(context.Background(), []prediction.Outcome{
		prediction.NewOutcome("AFLM_2024_01_Carlton_Richmond", "Carlton", "Richmond", 0.7, at),
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, OutcomePredictionsFile))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "Match_ID,Home_Team,Away_Team,Home_Win_Probability") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "AFLM_2024_01_Carlton_Richmond,Carlton,Richmond,0.7,") {
		t.Fatalf("expected replaced and sorted first row, got %s", lines[1])
	}
}

func TestPredictionRepository_UpsertMargins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := NewPredictionRepository(dir)

	if err := repo.UpsertMargins(context.Background(), []prediction.Margin{
		prediction.NewMargin("AFLM_2024_02_Richmond_Carlton", "Richmond", "Carlton", -7.5, time.Now()),
	}); err != nil {
		t.Fatalf("upsert margins: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, MarginPredictionsFile))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "AFLM_2024_02_Richmond_Carlton,Richmond,Carlton,-7.5,Carlton,") {
		t.Fatalf("unexpected export: %s", data)
	}
}
