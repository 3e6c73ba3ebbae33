package analytics

import (
	"math"

	"bilancio/internal/core"
)

// Trend compares an aggregate with the one for the immediately preceding
// period. Which period counts as "previous" is the caller's choice;
// core.PeriodKey.Previous encodes the calendar rule.
//
// Change percentages are zero whenever the prior total was zero, so a
// first month of data never divides by zero. Values are rounded to two
// decimals.
func Trend(current, previous core.Aggregate) core.TrendResult {
	result := core.TrendResult{
		TopCategory:        core.TopCategoryNone,
		AverageTransaction: current.AverageTransaction,
	}

	result.IncomeChangePercent = changePercent(current.TotalIncome, previous.TotalIncome)
	result.ExpenseChangePercent = changePercent(current.TotalExpenses, previous.TotalExpenses)

	if len(current.Categories) > 0 {
		result.TopCategory = current.Categories[0].Category
	}
	return result
}

func changePercent(current, previous core.Money) float64 {
	if previous.Cents <= 0 {
		return 0
	}
	change := float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
	return math.Round(change*100) / 100
}
