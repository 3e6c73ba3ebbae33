package analytics

import (
	"testing"

	"bilancio/internal/core"
)

func aggWith(income, expenses int64, categories ...core.CategoryLine) core.Aggregate {
	return core.Aggregate{
		TotalIncome:   core.Money{Cents: income},
		TotalExpenses: core.Money{Cents: expenses},
		NetBalance:    core.Money{Cents: income - expenses},
		Categories:    categories,
	}
}

func TestTrendChangePercents(t *testing.T) {
	tests := []struct {
		name        string
		current     core.Aggregate
		previous    core.Aggregate
		wantIncome  float64
		wantExpense float64
	}{
		{
			name:        "growth",
			current:     aggWith(330000, 180000),
			previous:    aggWith(300000, 220000),
			wantIncome:  10,
			wantExpense: -18.18,
		},
		{
			name:        "zero previous yields zero not infinity",
			current:     aggWith(330000, 180000),
			previous:    aggWith(0, 0),
			wantIncome:  0,
			wantExpense: 0,
		},
		{
			name:        "flat",
			current:     aggWith(300000, 220000),
			previous:    aggWith(300000, 220000),
			wantIncome:  0,
			wantExpense: 0,
		},
		{
			name:        "current dropped to zero",
			current:     aggWith(0, 0),
			previous:    aggWith(300000, 220000),
			wantIncome:  -100,
			wantExpense: -100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend(tt.current, tt.previous)
			if got.IncomeChangePercent != tt.wantIncome {
				t.Errorf("IncomeChangePercent = %v, want %v", got.IncomeChangePercent, tt.wantIncome)
			}
			if got.ExpenseChangePercent != tt.wantExpense {
				t.Errorf("ExpenseChangePercent = %v, want %v", got.ExpenseChangePercent, tt.wantExpense)
			}
		})
	}
}

func TestTrendTopCategory(t *testing.T) {
	t.Run("largest line wins", func(t *testing.T) {
		current := aggWith(0, 220000,
			core.CategoryLine{Category: "food", Kind: core.Expense, Amount: core.Money{Cents: 150000}},
			core.CategoryLine{Category: "rent", Kind: core.Expense, Amount: core.Money{Cents: 70000}},
		)
		got := Trend(current, core.Aggregate{})
		if got.TopCategory != "food" {
			t.Errorf("TopCategory = %q, want food", got.TopCategory)
		}
	})

	t.Run("no transactions", func(t *testing.T) {
		got := Trend(core.Aggregate{}, core.Aggregate{})
		if got.TopCategory != core.TopCategoryNone {
			t.Errorf("TopCategory = %q, want %q", got.TopCategory, core.TopCategoryNone)
		}
	})
}

func TestTrendCarriesAverageTransaction(t *testing.T) {
	current := core.Aggregate{AverageTransaction: core.Money{Cents: 173333}}
	got := Trend(current, core.Aggregate{})
	if got.AverageTransaction.Cents != 173333 {
		t.Errorf("AverageTransaction = %d", got.AverageTransaction.Cents)
	}
}
