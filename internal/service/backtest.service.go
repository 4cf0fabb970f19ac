package service

import (
	"context"
	"fmt"
	"hedgebacktest/internal/calculator"
	"hedgebacktest/internal/data"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/logger"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type BacktestHandler struct {
	MarketDataService data.MarketDataService
}

type BacktestInput struct {
	Params domain.StrategyParameters
	// zero means unbounded
	Start time.Time
	End   time.Time
}

type BacktestResult struct {
	Params    domain.StrategyParameters
	Snapshots []domain.StrategySnapshot
	Metrics   domain.PerformanceMetrics
	// % change of the reference asset since the first period
	Benchmark map[time.Time]float64
}

// Backtest pulls market data for the range and runs it
func (h BacktestHandler) Backtest(ctx context.Context, in BacktestInput) (*BacktestResult, error) {
	if h.MarketDataService == nil {
		return nil, fmt.Errorf("backtest handler has no market data service")
	}
	if !in.Start.IsZero() && !in.End.IsZero() && in.End.Before(in.Start) {
		return nil, &domain.ValidationError{Field: "end", Message: "end cannot be before start"}
	}

	points, err := h.MarketDataService.List(ctx, in.Start, in.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list market data: %w", err)
	}

	return h.Run(ctx, in.Params, points)
}

// Run simulates the points and summarizes the result
func (h BacktestHandler) Run(ctx context.Context, params domain.StrategyParameters, points []domain.MarketPoint) (*BacktestResult, error) {
	snapshots, err := h.Simulate(ctx, params, points)
	if err != nil {
		return nil, err
	}

	metrics, err := calculator.CalculateMetrics(snapshots, params.GranularityHours)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate metrics: %w", err)
	}

	granularity := time.Duration(params.GranularityHours * float64(time.Hour))
	benchmark, err := calculator.ReferenceBenchmark(points, granularity)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate benchmark: %w", err)
	}

	return &BacktestResult{
		Params:    params,
		Snapshots: snapshots,
		Metrics:   *metrics,
		Benchmark: benchmark,
	}, nil
}

// SimulateBatch runs several parameter sets over the same points. runs
// share nothing mutable so they go in parallel; each run is still a
// sequential fold. results are in the order of paramSets
func (h BacktestHandler) SimulateBatch(ctx context.Context, paramSets []domain.StrategyParameters, points []domain.MarketPoint) ([]BacktestResult, error) {
	results := make([]BacktestResult, len(paramSets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, params := range paramSets {
		i, params := i, params
		g.Go(func() error {
			result, err := h.Run(gctx, params, points)
			if err != nil {
				return fmt.Errorf("parameter set %d: %w", i, err)
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// ValidateRun checks everything up front so that a bad point fails the
// run before any snapshot exists
func ValidateRun(params domain.StrategyParameters, points []domain.MarketPoint) error {
	if err := params.Validate(); err != nil {
		return err
	}
	for i, p := range points {
		period := i + 1
		if err := p.Validate(period, params.ShortAlt); err != nil {
			return err
		}
		if i > 0 && !p.Timestamp.After(points[i-1].Timestamp) {
			return &domain.ValidationError{
				Period:    period,
				Timestamp: p.Timestamp,
				Field:     "timestamp",
				Message:   "market points must be strictly increasing in time",
			}
		}
	}
	return nil
}

// Simulate folds the strategy over points, one snapshot per point. each
// step only sees the previous snapshot
func (h BacktestHandler) Simulate(ctx context.Context, params domain.StrategyParameters, points []domain.MarketPoint) ([]domain.StrategySnapshot, error) {
	log := logger.FromContext(ctx)

	if err := ValidateRun(params, points); err != nil {
		return nil, err
	}

	log.Infow(
		"starting simulation",
		"periods", len(points),
		"longBtc", params.LongBtc,
		"shortAlt", params.ShortAlt,
		"btcRatio", params.BtcRatio,
	)

	snapshots := make([]domain.StrategySnapshot, 0, len(points))
	var prev *domain.StrategySnapshot
	for i, point := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snapshot, err := nextSnapshot(ctx, params, prev, point, i+1)
		if err != nil {
			return nil, err
		}
		if prev != nil && prev.IsActive != snapshot.IsActive {
			log.Infow("strategy state changed", "period", snapshot.Period, "active", snapshot.IsActive, "reason", snapshot.RebalanceReason)
		}

		snapshots = append(snapshots, *snapshot)
		prev = &snapshots[len(snapshots)-1]
	}

	if prev != nil {
		log.Infow(
			"finished simulation",
			"periods", len(snapshots),
			"totalValue", prev.TotalValue,
			"cumulativePnlPercent", prev.CumulativePnlPercent,
		)
	}

	return snapshots, nil
}

// shortWeights splits the short sleeve by market share among the selected
// symbols. with no market share data everything gets an equal slice
func shortWeights(selected []domain.ShortCandidateScore, point domain.MarketPoint) map[string]float64 {
	shares := map[string]float64{}
	for _, s := range selected {
		quote, _ := point.Quote(s.Symbol)
		shares[s.Symbol] = quote.MarketShare
	}
	total := lo.Sum(lo.Values(shares))

	weights := map[string]float64{}
	for symbol, share := range shares {
		if total > 0 {
			weights[symbol] = share / total
		} else {
			weights[symbol] = 1.0 / float64(len(shares))
		}
	}
	return weights
}

func nextSnapshot(
	ctx context.Context,
	params domain.StrategyParameters,
	prev *domain.StrategySnapshot,
	point domain.MarketPoint,
	period int,
) (*domain.StrategySnapshot, error) {
	log := logger.FromContext(ctx)
	arithmeticErr := func(format string, args ...any) error {
		return &domain.ArithmeticError{
			Period:    period,
			Timestamp: point.Timestamp,
			Message:   fmt.Sprintf(format, args...),
		}
	}

	// first period starts from cash
	previousTotalValue := params.InitialCapital
	var prevReference *domain.PositionInfo
	prevShorts := map[string]domain.PositionInfo{}
	cumulativeTradingFee := 0.0
	cumulativeFundingFee := 0.0
	if prev != nil {
		previousTotalValue = prev.TotalValue
		if prev.ReferencePosition != nil && !prev.ReferencePosition.IsClosed {
			p := *prev.ReferencePosition
			prevReference = &p
		}
		prevShorts = lo.KeyBy(prev.ShortPositions, func(p domain.PositionInfo) string {
			return p.Symbol
		})
		cumulativeTradingFee = prev.CumulativeTradingFee
		cumulativeFundingFee = prev.CumulativeFundingFee
	}
	if previousTotalValue <= 0 {
		return nil, arithmeticErr("portfolio value %f is exhausted", previousTotalValue)
	}

	selection := &domain.ShortSelectionResult{Reason: "no short candidates in ranking"}
	if len(point.Ranking) > 0 {
		var err error
		selection, err = calculator.ScoreShortCandidates(calculator.ScoreShortCandidatesInput{
			Ranking:                 point.Ranking,
			ReferenceSymbol:         params.Reference(),
			ReferenceAsset24hChange: point.ReferenceAsset24hChange,
			Weights:                 params.Weights,
			MaxShortPositions:       params.MaxShortPositions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to score short candidates in period %d: %w", period, err)
		}
	}

	shortActive := params.ShortAlt && len(selection.Selected) > 0
	isActive := params.LongBtc || shortActive

	var (
		periodPnl         float64
		periodTradingFee  float64
		periodFundingFee  float64
		referencePosition *domain.PositionInfo
		shortPositions    = []domain.PositionInfo{}
		closedPositions   = []domain.PositionInfo{}
	)

	// long leg. also runs when the leg was switched off so the old
	// position gets closed out
	if params.LongBtc || prevReference != nil {
		targetQuantity := 0.0
		if params.LongBtc {
			q, err := calculator.TargetQuantity(previousTotalValue*params.BtcRatio, point.ReferenceAssetPrice)
			if err != nil {
				return nil, arithmeticErr("failed to size %s: %s", params.Reference(), err.Error())
			}
			targetQuantity = q
		}

		result, err := calculator.AdjustPosition(calculator.AdjustPositionInput{
			Previous:       prevReference,
			Symbol:         params.Reference(),
			Side:           domain.PositionSide_Long,
			TargetQuantity: targetQuantity,
			CurrentPrice:   point.ReferenceAssetPrice,
			TradingFeeRate: params.TradingFeeRate,
		})
		if err != nil {
			return nil, arithmeticErr("failed to adjust %s: %s", params.Reference(), err.Error())
		}

		periodPnl += result.PnlDelta
		periodTradingFee += result.TradingFee
		position := result.Position
		if position.IsClosed {
			closedPositions = append(closedPositions, position)
		} else if position.Quantity > 0 {
			referencePosition = &position
		}
	}

	// short leg
	targets := map[string]float64{}
	if shortActive {
		sleeve := previousTotalValue
		if params.LongBtc {
			sleeve *= 1 - params.BtcRatio
		}
		weights := shortWeights(selection.Selected, point)
		for _, s := range selection.Selected {
			quote, _ := point.Quote(s.Symbol)
			q, err := calculator.TargetQuantity(sleeve*weights[s.Symbol], quote.Price)
			if err != nil {
				return nil, arithmeticErr("failed to size short %s: %s", s.Symbol, err.Error())
			}
			targets[s.Symbol] = q
		}
	}

	// anything held but no longer targeted gets a target of 0
	symbols := lo.Uniq(append(lo.Keys(targets), lo.Keys(prevShorts)...))
	sort.Strings(symbols)

	for _, symbol := range symbols {
		prevPosition, held := prevShorts[symbol]
		quote, quoted := point.Quote(symbol)

		price := quote.Price
		if !quoted {
			price = prevPosition.CurrentPrice
			log.Warnw("held symbol missing from ranking, using last price", "period", period, "symbol", symbol, "price", price)
		}

		var previous *domain.PositionInfo
		fundingFee := 0.0
		if held {
			previous = &prevPosition
			rate := 0.0
			if quoted && quote.FundingRate != nil {
				rate = *quote.FundingRate
			}
			// funding accrues on what was held coming into the period,
			// before this period's move
			fundingFee = calculator.FundingFee(domain.PositionSide_Short, prevPosition.Quantity*prevPosition.CurrentPrice, rate)
		}

		result, err := calculator.AdjustPosition(calculator.AdjustPositionInput{
			Previous:       previous,
			Symbol:         symbol,
			Side:           domain.PositionSide_Short,
			TargetQuantity: targets[symbol],
			CurrentPrice:   price,
			TradingFeeRate: params.TradingFeeRate,
		})
		if err != nil {
			return nil, arithmeticErr("failed to adjust short %s: %s", symbol, err.Error())
		}

		position := result.Position
		position.PeriodFundingFee = fundingFee
		periodPnl += result.PnlDelta
		periodTradingFee += result.TradingFee
		periodFundingFee += fundingFee

		if position.IsClosed {
			closedPositions = append(closedPositions, position)
		} else if position.Quantity > 0 {
			shortPositions = append(shortPositions, position)
		}
	}

	totalValue := previousTotalValue + periodPnl - periodTradingFee + periodFundingFee
	if math.IsNaN(totalValue) || math.IsInf(totalValue, 0) {
		return nil, arithmeticErr("non-finite total value")
	}

	snapshot := &domain.StrategySnapshot{
		Period:               period,
		Timestamp:            point.Timestamp,
		ReferencePosition:    referencePosition,
		ShortPositions:       shortPositions,
		ClosedPositions:      closedPositions,
		TotalValue:           totalValue,
		PeriodPnl:            periodPnl,
		PeriodPnlPercent:     (totalValue - previousTotalValue) / previousTotalValue,
		CumulativePnl:        totalValue - params.InitialCapital,
		CumulativePnlPercent: (totalValue - params.InitialCapital) / params.InitialCapital,
		PeriodTradingFee:     periodTradingFee,
		CumulativeTradingFee: cumulativeTradingFee + periodTradingFee,
		PeriodFundingFee:     periodFundingFee,
		CumulativeFundingFee: cumulativeFundingFee + periodFundingFee,
		IsActive:             isActive,
		RebalanceReason:      rebalanceReason(params, selection, isActive),
		CandidateScores:      selection.All(),
	}
	snapshot.CashBalance = totalValue - snapshot.MarketValue()

	log.Debugw(
		"simulated period",
		"period", period,
		"totalValue", snapshot.TotalValue,
		"periodPnl", periodPnl,
		"periodTradingFee", periodTradingFee,
		"periodFundingFee", periodFundingFee,
		"shorts", len(shortPositions),
		"closed", len(closedPositions),
	)

	return snapshot, nil
}

func rebalanceReason(params domain.StrategyParameters, selection *domain.ShortSelectionResult, isActive bool) string {
	if !params.LongBtc && !params.ShortAlt {
		return "strategy inactive: both legs disabled"
	}
	if !isActive {
		return "strategy inactive: " + selection.Reason
	}

	parts := []string{}
	if params.LongBtc {
		parts = append(parts, fmt.Sprintf("long %s at %.2f%% of capital", params.Reference(), params.BtcRatio*100))
	}
	if params.ShortAlt {
		parts = append(parts, selection.Reason)
	} else {
		parts = append(parts, "short leg disabled")
	}
	return strings.Join(parts, "; ")
}
