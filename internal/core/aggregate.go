package core

import "time"

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"

	// TopCategoryNone is the sentinel reported when a period has no
	// transactions at all.
	TopCategoryNone = "none"
)

type (
	// Confidence labels how much history backs a forecast.
	Confidence string

	// CategoryLine is one row of a category breakdown. The same category
	// name used for both income and expense yields two distinct lines.
	// Percentage is the integer share of this line within its kind's total.
	CategoryLine struct {
		Category   string `json:"category"`
		Kind       Kind   `json:"kind"`
		Amount     Money  `json:"amount"`
		Count      int    `json:"count"`
		Percentage int    `json:"percentage"`
	}

	// MonthSlot is one calendar month of a yearly breakdown. Months with
	// no data carry zero values rather than being omitted.
	MonthSlot struct {
		Month            int   `json:"month"`
		Income           Money `json:"income"`
		Expenses         Money `json:"expenses"`
		Balance          Money `json:"balance"`
		TransactionCount int   `json:"transactionCount"`
	}

	// Aggregate is the computed summary for one PeriodKey. It is immutable
	// once constructed; recomputation supersedes it, never mutates it.
	// Invariant: NetBalance == TotalIncome - TotalExpenses.
	Aggregate struct {
		Key                PeriodKey      `json:"-"`
		TotalIncome        Money          `json:"totalIncome"`
		TotalExpenses      Money          `json:"totalExpenses"`
		NetBalance         Money          `json:"netBalance"`
		TransactionCount   int            `json:"transactionCount"`
		AverageTransaction Money          `json:"averageTransaction"`
		Categories         []CategoryLine `json:"categories"`
		// MonthlyBreakdown has exactly 12 entries for yearly aggregates
		// and is nil for monthly ones.
		MonthlyBreakdown []MonthSlot `json:"monthlyBreakdown,omitempty"`
	}

	// TrendResult compares an aggregate against its preceding period.
	// Change percentages are zero when the prior period total was zero,
	// never infinity or NaN.
	TrendResult struct {
		IncomeChangePercent  float64 `json:"incomeChangePercent"`
		ExpenseChangePercent float64 `json:"expenseChangePercent"`
		TopCategory          string  `json:"topCategory"`
		AverageTransaction   Money   `json:"averageTransaction"`
	}

	// ForecastResult is a simple next-period prediction from a 6-month
	// rolling window of completed transactions.
	ForecastResult struct {
		NextPeriodPrediction    Money      `json:"nextPeriodPrediction"`
		Confidence              Confidence `json:"confidence"`
		BasedOnTransactionCount int        `json:"basedOnTransactionCount"`
	}
)

// Stats is the full answer to a stats request: the period aggregate plus
// its trend against the previous period and cache provenance.
type Stats struct {
	Aggregate
	Trends       TrendResult `json:"trends"`
	FromCache    bool        `json:"fromCache"`
	CalculatedAt time.Time   `json:"calculatedAt"`
}
