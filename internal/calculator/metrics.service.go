package calculator

import (
	"hedgebacktest/internal/domain"
	"math"

	"github.com/montanaflynn/stats"
)

const hoursPerYear = 365 * 24

// CalculateMetrics reduces a run to its summary statistics. snapshots must
// be the full, ordered output of a single run since the starting capital
// is recovered from the first one
func CalculateMetrics(snapshots []domain.StrategySnapshot, granularityHours float64) (*domain.PerformanceMetrics, error) {
	if len(snapshots) == 0 {
		return nil, &domain.EmptyInputError{Message: "cannot calculate metrics without snapshots"}
	}
	if math.IsNaN(granularityHours) || math.IsInf(granularityHours, 0) || granularityHours <= 0 {
		return nil, &domain.ValidationError{
			Field:   "granularityHours",
			Message: "must be > 0",
		}
	}

	initialCapital := snapshots[0].InitialCapital()
	returns := periodReturns(snapshots, initialCapital)
	periodCount := len(snapshots)

	totalReturn := snapshots[len(snapshots)-1].CumulativePnlPercent

	years := float64(periodCount) * granularityHours / hoursPerYear
	annualizedReturn := 0.0
	if years > 0 {
		if 1+totalReturn <= 0 {
			annualizedReturn = -1
		} else {
			annualizedReturn = math.Pow(1+totalReturn, 1/years) - 1
		}
	}

	// sample stdev, like everywhere else we measure dispersion. needs
	// at least two returns
	volatility := 0.0
	if len(returns) > 1 {
		stdev, err := stats.StandardDeviationSample(returns)
		if err == nil {
			volatility = stdev * math.Sqrt(hoursPerYear/granularityHours)
		}
	}

	maxDrawdown, ddStart, ddEnd := maxDrawdown(snapshots, initialCapital)

	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}

	avgReturn, _ := stats.Mean(returns)
	best, _ := stats.Max(returns)
	worst, _ := stats.Min(returns)

	return &domain.PerformanceMetrics{
		PeriodCount:            periodCount,
		TotalReturn:            finiteOrZero(totalReturn),
		AnnualizedReturn:       finiteOrZero(annualizedReturn),
		Volatility:             finiteOrZero(volatility),
		SharpeRatio:            safeDiv(annualizedReturn, volatility),
		MaxDrawdown:            finiteOrZero(maxDrawdown),
		MaxDrawdownStartPeriod: ddStart,
		MaxDrawdownEndPeriod:   ddEnd,
		WinRate:                float64(wins) / float64(len(returns)),
		AvgReturn:              finiteOrZero(avgReturn),
		BestPeriod:             finiteOrZero(best),
		WorstPeriod:            finiteOrZero(worst),
		CalmarRatio:            safeDiv(annualizedReturn, maxDrawdown),
	}, nil
}

// periodReturns is the net return of every period, the first measured
// against starting capital
func periodReturns(snapshots []domain.StrategySnapshot, initialCapital float64) []float64 {
	returns := make([]float64, 0, len(snapshots))
	lastValue := initialCapital
	for _, s := range snapshots {
		ret := 0.0
		if lastValue > 0 {
			ret = (s.TotalValue - lastValue) / lastValue
		}
		returns = append(returns, finiteOrZero(ret))
		lastValue = s.TotalValue
	}
	return returns
}

// maxDrawdown walks the equity curve with a running peak that starts at
// the initial capital (period 0). periods are 1-indexed, start is the
// peak and end is the trough
func maxDrawdown(snapshots []domain.StrategySnapshot, initialCapital float64) (float64, int, int) {
	peak := initialCapital
	peakPeriod := 0
	maxDD := 0.0
	start, end := 0, 0
	for i, s := range snapshots {
		period := i + 1
		if s.TotalValue > peak {
			peak = s.TotalValue
			peakPeriod = period
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - s.TotalValue) / peak
		if dd > maxDD {
			maxDD = dd
			start = peakPeriod
			end = period
		}
	}
	return maxDD, start, end
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return finiteOrZero(a / b)
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
