package model

import (
	"math"
	"strconv"
	"time"
)

// OutputHeader is the column order of the solution CSV.
var OutputHeader = []string{
	"ID", "Spot", "Strike", "Risk-Free Rate", "Years to Expiry",
	"Option Type", "Model Type", "Implied Volatility", "Market Price",
}

// Solution is a trade paired with its solved volatility.
// ImpliedVolatility is NaN when no root exists in the searched ladder.
type Solution struct {
	Trade
	ImpliedVolatility float64
	Iterations        int
}

// Solved reports whether a volatility was found.
func (s *Solution) Solved() bool {
	return !math.IsNaN(s.ImpliedVolatility)
}

// Row renders the solution in OutputHeader order.
func (s *Solution) Row() []string {
	return []string{
		s.ID,
		formatFloat(s.Spot),
		formatFloat(s.Strike),
		formatFloat(s.Rate),
		formatFloat(s.YearsToExpiry),
		string(s.OptionType),
		string(s.ModelType),
		formatFloat(s.ImpliedVolatility),
		formatFloat(s.MarketPrice),
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// BatchSummary describes one run over an input file.
type BatchSummary struct {
	Source     string
	Output     string
	Total      int
	Solved     int
	NaNCount   int
	Iterations int
	StartedAt  time.Time
	Duration   time.Duration
}

// Add folds one solution into the summary counters.
func (b *BatchSummary) Add(s *Solution) {
	b.Total++
	b.Iterations += s.Iterations
	if s.Solved() {
		b.Solved++
	} else {
		b.NaNCount++
	}
}
