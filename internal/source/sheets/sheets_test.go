package sheets

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func validRow() []any {
	return []any{"tx-1", "2025-03-10", "groceries", "45,50", "Expense", "food", "Completed", "2025-03-10T12:00:00Z"}
}

func TestParseRow(t *testing.T) {
	rec, err := parseRow("u1", validRow())
	if err != nil {
		t.Fatalf("parseRow() error = %v", err)
	}

	if rec.OriginalID != "tx-1" || rec.SubjectID != "u1" {
		t.Errorf("identity = %s/%s", rec.OriginalID, rec.SubjectID)
	}
	if rec.Amount.Cents != 4550 {
		t.Errorf("Amount = %d, want 4550", rec.Amount.Cents)
	}
	if rec.Kind != core.Expense || rec.Status != core.StatusCompleted {
		t.Errorf("kind/status = %s/%s (case folding expected)", rec.Kind, rec.Status)
	}
	if rec.OccurredAt.Year() != 2025 || int(rec.OccurredAt.Month()) != 3 {
		t.Errorf("OccurredAt = %v", rec.OccurredAt)
	}
}

func TestParseRowRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]any) []any
	}{
		{"too few columns", func(row []any) []any { return row[:5] }},
		{"non-string cell", func(row []any) []any { row[3] = 45.5; return row }},
		{"bad date", func(row []any) []any { row[1] = "10/03/2025"; return row }},
		{"bad amount", func(row []any) []any { row[3] = "lots"; return row }},
		{"negative amount", func(row []any) []any { row[3] = "-45,50"; return row }},
		{"unknown kind", func(row []any) []any { row[4] = "transfer"; return row }},
		{"bad last modified", func(row []any) []any { row[7] = "yesterday"; return row }},
		{"empty id", func(row []any) []any { row[0] = " "; return row }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseRow("u1", tt.mutate(validRow())); err == nil {
				t.Error("parseRow() = nil error, want rejection")
			}
		})
	}
}

func TestNewFromEnvRequiresSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("NewFromEnv() = nil error without GOOGLE_SPREADSHEET_ID")
	}
}
