package calculator

import (
	"errors"
	"hedgebacktest/internal/domain"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func snapshotsFromValues(initialCapital float64, values ...float64) []domain.StrategySnapshot {
	out := []domain.StrategySnapshot{}
	for i, v := range values {
		out = append(out, domain.StrategySnapshot{
			Period:               i + 1,
			TotalValue:           v,
			CumulativePnl:        v - initialCapital,
			CumulativePnlPercent: (v - initialCapital) / initialCapital,
		})
	}
	return out
}

func Test_CalculateMetrics(t *testing.T) {
	t.Run("drawdown between peak and trough", func(t *testing.T) {
		snapshots := snapshotsFromValues(10000, 10000, 11000, 9000, 9500, 12000)

		metrics, err := CalculateMetrics(snapshots, 24)
		require.NoError(t, err)
		require.Equal(t, 5, metrics.PeriodCount)
		require.InDelta(t, 2000.0/11000, metrics.MaxDrawdown, 1e-9)
		require.Equal(t, 2, metrics.MaxDrawdownStartPeriod)
		require.Equal(t, 3, metrics.MaxDrawdownEndPeriod)
		require.InDelta(t, 0.2, metrics.TotalReturn, 1e-12)
		require.InDelta(t, 0.6, metrics.WinRate, 1e-12)
		require.InDelta(t, 0.2631578947, metrics.BestPeriod, 1e-9)
		require.InDelta(t, -0.1818181818, metrics.WorstPeriod, 1e-9)

		years := 5.0 * 24 / (365 * 24)
		require.InDelta(t, math.Pow(1.2, 1/years)-1, metrics.AnnualizedReturn, 1e-6)
		require.Greater(t, metrics.Volatility, 0.0)
		require.InDelta(t, metrics.AnnualizedReturn/metrics.Volatility, metrics.SharpeRatio, 1e-9)
		require.InDelta(t, metrics.AnnualizedReturn/metrics.MaxDrawdown, metrics.CalmarRatio, 1e-9)
	})

	t.Run("drawdown from starting capital", func(t *testing.T) {
		snapshots := snapshotsFromValues(10000, 9000, 9500)

		metrics, err := CalculateMetrics(snapshots, 8)
		require.NoError(t, err)
		require.InDelta(t, 0.1, metrics.MaxDrawdown, 1e-12)
		require.Equal(t, 0, metrics.MaxDrawdownStartPeriod)
		require.Equal(t, 1, metrics.MaxDrawdownEndPeriod)
	})

	t.Run("single flat period degenerates to zeros", func(t *testing.T) {
		metrics, err := CalculateMetrics(snapshotsFromValues(10000, 10000), 8)
		require.NoError(t, err)
		require.Equal(t, domain.PerformanceMetrics{PeriodCount: 1}, *metrics)
	})

	t.Run("total loss annualizes to -1", func(t *testing.T) {
		metrics, err := CalculateMetrics(snapshotsFromValues(10000, 5000, 0), 8)
		require.NoError(t, err)
		require.Equal(t, -1.0, metrics.AnnualizedReturn)
		require.Equal(t, 1.0, metrics.MaxDrawdown)
		require.False(t, math.IsNaN(metrics.SharpeRatio))
	})

	t.Run("no snapshots", func(t *testing.T) {
		_, err := CalculateMetrics(nil, 8)
		emptyErr := &domain.EmptyInputError{}
		require.True(t, errors.As(err, &emptyErr))
	})

	t.Run("bad granularity", func(t *testing.T) {
		_, err := CalculateMetrics(snapshotsFromValues(10000, 10000), 0)
		validationErr := &domain.ValidationError{}
		require.True(t, errors.As(err, &validationErr))
	})
}
