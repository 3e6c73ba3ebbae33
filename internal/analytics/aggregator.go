package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"bilancio/internal/core"
)

// Aggregator computes period aggregates from the transaction store. It is
// a pure read path: identical inputs against an unchanged store yield
// identical aggregates.
type Aggregator struct {
	store TransactionReader
}

func NewAggregator(store TransactionReader) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate computes the summary for one period key. Only completed
// transactions are counted. A period with no records yields a well-defined
// zero aggregate, 12 zero-filled month slots included for yearly keys.
func (a *Aggregator) Aggregate(ctx context.Context, key core.PeriodKey) (core.Aggregate, error) {
	if err := key.Validate(); err != nil {
		return core.Aggregate{}, err
	}

	from, to := key.Window()
	records, err := a.store.Find(ctx, key.SubjectID, from, to, core.StatusCompleted)
	if err != nil {
		return core.Aggregate{}, fmt.Errorf("find transactions for %s: %w", key, err)
	}

	agg := summarize(key, records)

	if key.Granularity == core.Yearly {
		// One query per calendar month. Linear in store latency x 12,
		// accepted over a grouped query for simplicity.
		slots, err := a.monthlyBreakdown(ctx, key)
		if err != nil {
			return core.Aggregate{}, err
		}
		agg.MonthlyBreakdown = slots
	}

	return agg, nil
}

func (a *Aggregator) monthlyBreakdown(ctx context.Context, yearKey core.PeriodKey) ([]core.MonthSlot, error) {
	slots := make([]core.MonthSlot, 12)
	for m := 1; m <= 12; m++ {
		monthKey := core.MonthlyKey(yearKey.SubjectID, yearKey.Year, m)
		from, to := monthKey.Window()
		records, err := a.store.Find(ctx, monthKey.SubjectID, from, to, core.StatusCompleted)
		if err != nil {
			return nil, fmt.Errorf("find transactions for %s: %w", monthKey, err)
		}
		income, expenses, count := totals(records)
		slots[m-1] = core.MonthSlot{
			Month:            m,
			Income:           income,
			Expenses:         expenses,
			Balance:          income.Sub(expenses),
			TransactionCount: count,
		}
	}
	return slots, nil
}

// summarize folds records into the aggregate value object.
func summarize(key core.PeriodKey, records []core.TransactionRecord) core.Aggregate {
	income, expenses, count := totals(records)

	agg := core.Aggregate{
		Key:              key,
		TotalIncome:      income,
		TotalExpenses:    expenses,
		NetBalance:       income.Sub(expenses),
		TransactionCount: count,
		Categories:       breakdown(records),
	}
	if count > 0 {
		volume := income.Add(expenses)
		agg.AverageTransaction = core.Money{Cents: roundDiv(volume.Cents, int64(count))}
	}
	return agg
}

func totals(records []core.TransactionRecord) (income, expenses core.Money, count int) {
	for _, r := range records {
		switch r.Kind {
		case core.Income:
			income = income.Add(r.Amount)
		case core.Expense:
			expenses = expenses.Add(r.Amount)
		}
	}
	return income, expenses, len(records)
}

// breakdown groups records by (category, kind) and assigns each line its
// integer percentage of that kind's total. Lines are sorted by amount
// descending, category name ascending on ties.
func breakdown(records []core.TransactionRecord) []core.CategoryLine {
	type groupKey struct {
		category string
		kind     core.Kind
	}

	groups := make(map[groupKey]*core.CategoryLine)
	var kindTotals [2]int64 // income, expense
	for _, r := range records {
		k := groupKey{category: r.Category, kind: r.Kind}
		line, ok := groups[k]
		if !ok {
			line = &core.CategoryLine{Category: r.Category, Kind: r.Kind}
			groups[k] = line
		}
		line.Amount = line.Amount.Add(r.Amount)
		line.Count++
		if r.Kind == core.Income {
			kindTotals[0] += r.Amount.Cents
		} else {
			kindTotals[1] += r.Amount.Cents
		}
	}

	lines := make([]core.CategoryLine, 0, len(groups))
	for _, line := range groups {
		total := kindTotals[1]
		if line.Kind == core.Income {
			total = kindTotals[0]
		}
		if total > 0 {
			line.Percentage = int(math.Round(float64(line.Amount.Cents) / float64(total) * 100))
		}
		lines = append(lines, *line)
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Amount.Cents != lines[j].Amount.Cents {
			return lines[i].Amount.Cents > lines[j].Amount.Cents
		}
		if lines[i].Category != lines[j].Category {
			return lines[i].Category < lines[j].Category
		}
		return lines[i].Kind < lines[j].Kind
	})
	return lines
}

// roundDiv divides with half-away-from-zero rounding.
func roundDiv(n, d int64) int64 {
	return int64(math.Round(float64(n) / float64(d)))
}
