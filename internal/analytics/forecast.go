package analytics

import (
	"math"

	"bilancio/internal/core"
)

const (
	// ForecastWindowMonths is the size of the rolling history window.
	ForecastWindowMonths = 6

	// highConfidenceThreshold: strictly more transactions than this in
	// the window makes the prediction "high" confidence.
	highConfidenceThreshold = 20
)

// Forecast derives a next-period prediction from the completed
// transactions of the rolling window: the window's net balance averaged
// over six months, rounded to a whole currency unit. No seasonal or
// regression modeling, deliberately.
//
// An empty window yields a zero prediction with low confidence, never an
// error.
func Forecast(window []core.TransactionRecord) core.ForecastResult {
	if len(window) == 0 {
		return core.ForecastResult{
			NextPeriodPrediction:    core.Money{},
			Confidence:              core.ConfidenceLow,
			BasedOnTransactionCount: 0,
		}
	}

	income, expenses, count := totals(window)
	net := income.Sub(expenses)

	// Average per month, then snap to a whole unit.
	units := math.Round(float64(net.Cents) / ForecastWindowMonths / 100)

	confidence := core.ConfidenceMedium
	if count > highConfidenceThreshold {
		confidence = core.ConfidenceHigh
	}

	return core.ForecastResult{
		NextPeriodPrediction:    core.Money{Cents: int64(units) * 100},
		Confidence:              confidence,
		BasedOnTransactionCount: count,
	}
}
