package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/riskibarqy/afl-match-model/internal/domain/dataset"
)

func TestPayload_RoundTrip(t *testing.T) {
	row := dataset.Row{
		"Match_ID":             dataset.Text("AFLM_2024_01_Carlton_Richmond"),
		"ELO":                  dataset.Number(1516),
		"Home_Score_For_mean1": dataset.Null(),
	}

	encoded, err := encodePayload(row)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	if !strings.Contains(encoded, `"Home_Score_For_mean1":null`) {
		t.Fatalf("expected explicit null in payload, got %s", encoded)
	}

	decoded, err := decodePayload([]byte(encoded))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	for column, want := range row {
		if !decoded.Get(column).Equal(want) {
			t.Fatalf("column %s: want %v, got %v", column, want, decoded.Get(column))
		}
	}
}

func TestColumns_RoundTripAndMerge(t *testing.T) {
	encoded, err := encodeColumns([]string{"Match_ID", "ELO"})
	if err != nil {
		t.Fatalf("encode columns: %v", err)
	}
	stored, err := decodeColumns([]byte(encoded))
	if err != nil {
		t.Fatalf("decode columns: %v", err)
	}

	got := mergeColumns(stored, []string{"Match_ID", "xELO", "ELO"})
	if strings.Join(got, ",") != "Match_ID,ELO,xELO" {
		t.Fatalf("unexpected merged columns: %v", got)
	}
}

func TestCollapseByKey(t *testing.T) {
	table := dataset.NewTable("Player_Match_ID", "Disposals", "Goals")
	table.AppendRow(dataset.Row{"Player_Match_ID": dataset.Text("a"), "Disposals": dataset.Number(20)})
	table.AppendRow(dataset.Row{"Player_Match_ID": dataset.Text("b"), "Disposals": dataset.Number(12)})
	table.AppendRow(dataset.Row{"Player_Match_ID": dataset.Text("a"), "Goals": dataset.Number(2)})

	keys, rows, err := collapseByKey(table, "Player_Match_ID")
	if err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if strings.Join(keys, ",") != "a,b" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if v, _ := rows[0].Get("Goals").Float(); v != 2 {
		t.Fatalf("expected later cell to win, got %v", rows[0].Get("Goals"))
	}

	t.Run("blank key", func(t *testing.T) {
		blank := dataset.NewTable("Player_Match_ID")
		blank.AppendRow(dataset.Row{"Player_Match_ID": dataset.Text(" ")})
		if _, _, err := collapseByKey(blank, "Player_Match_ID"); !errors.Is(err, dataset.ErrMissingJoinKey) {
			t.Fatalf("expected ErrMissingJoinKey, got %v", err)
		}
	})
}
