package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hedgebacktest/internal/db/models/postgres/public/model"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/logger"
	"hedgebacktest/internal/service"
	"hedgebacktest/internal/util"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BacktestRequest struct {
	// fields left out keep their defaults
	Params *domain.StrategyParameters `json:"params"`
	Start  string                     `json:"start"`
	End    string                     `json:"end"`
	// optional named granularity (8h, daily, ...) that overrides
	// params.granularityHours
	Granularity string `json:"granularity"`
	// if empty, points come from the configured market data
	Points []domain.MarketPoint `json:"points"`
}

type BacktestResponse struct {
	RunID     *uuid.UUID                `json:"runID,omitempty"`
	Params    domain.StrategyParameters `json:"params"`
	Snapshots []domain.StrategySnapshot `json:"snapshots"`
	Metrics   domain.PerformanceMetrics `json:"metrics"`
	Benchmark map[string]float64        `json:"benchmark"`
}

func (h ApiHandler) backtest(c *gin.Context) {
	profile, endProfile := domain.NewProfile()
	ctx := domain.ContextWithProfile(c.Request.Context(), profile)
	profile.StartNewSpan("parse request")

	params := domain.DefaultStrategyParameters()
	requestBody := BacktestRequest{Params: &params}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, 400)
		return
	}
	if requestBody.Params == nil {
		requestBody.Params = &params
	}
	if requestBody.Granularity != "" {
		hours, ok := util.GranularityFromString(requestBody.Granularity)
		if !ok {
			returnErrorJsonCode(fmt.Errorf("unknown granularity '%s'", requestBody.Granularity), c, 400)
			return
		}
		requestBody.Params.GranularityHours = hours
	}
	start, end, err := parseRange(requestBody.Start, requestBody.End)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	profile.StartNewSpan("load market data")
	points, err := h.resolvePoints(ctx, requestBody.Points, start, end)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	profile.StartNewSpan("run backtest")
	result, err := h.BacktestHandler.Run(ctx, *requestBody.Params, points)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to run backtest: %w", err), c)
		return
	}

	profile.StartNewSpan("save run")
	runID, err := h.saveBacktestRun(ctx, start, end, points, result)
	if err != nil {
		// the result is still good, just not stored
		logger.FromContext(ctx).Errorw("failed to save backtest run", "error", err.Error())
	}

	endProfile()
	h.saveProfile(ctx, profile, runID)

	c.JSON(200, BacktestResponse{
		RunID:     runID,
		Params:    result.Params,
		Snapshots: result.Snapshots,
		Metrics:   result.Metrics,
		Benchmark: formatSeries(result.Benchmark),
	})
}

func (h ApiHandler) resolvePoints(ctx context.Context, inline []domain.MarketPoint, start, end time.Time) ([]domain.MarketPoint, error) {
	if len(inline) > 0 {
		return inline, nil
	}
	if h.BacktestHandler.MarketDataService == nil {
		return nil, &domain.EmptyInputError{Message: "no market points supplied and no market data configured"}
	}
	points, err := h.BacktestHandler.MarketDataService.List(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list market data: %w", err)
	}
	return points, nil
}

// hashBacktestInput identifies a run by what determines its output: params,
// range and the resolved market points.
// runs are deterministic so equal hashes mean equal results
func hashBacktestInput(params domain.StrategyParameters, start, end time.Time, points []domain.MarketPoint) (string, error) {
	type backtestInput struct {
		Params domain.StrategyParameters `json:"params"`
		Start  *time.Time                `json:"start,omitempty"`
		End    *time.Time                `json:"end,omitempty"`
		Points []domain.MarketPoint      `json:"points"`
	}

	params.ReferenceSymbol = params.Reference()
	in := backtestInput{
		Params: params,
		Start:  timePtr(start),
		End:    timePtr(end),
		Points: points,
	}
	inBytes, err := json.Marshal(in)
	if err != nil {
		return "", err
	}

	hasher := sha256.New()
	hasher.Write(inBytes)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (h ApiHandler) saveBacktestRun(
	ctx context.Context,
	start, end time.Time,
	points []domain.MarketPoint,
	result *service.BacktestResult,
) (*uuid.UUID, error) {
	if h.BacktestRunRepository == nil || len(result.Snapshots) == 0 {
		return nil, nil
	}

	inputHash, err := hashBacktestInput(result.Params, start, end, points)
	if err != nil {
		return nil, fmt.Errorf("failed to hash backtest input: %w", err)
	}
	existing, err := h.BacktestRunRepository.GetLatestByInputHash(inputHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.FromContext(ctx).Debugw("reusing stored backtest run", "runID", existing.BacktestRunID.String())
		return &existing.BacktestRunID, nil
	}

	paramsBytes, err := json.Marshal(result.Params)
	if err != nil {
		return nil, err
	}
	metricsBytes, err := json.Marshal(result.Metrics)
	if err != nil {
		return nil, err
	}
	snapshotBytes, err := json.Marshal(result.Snapshots)
	if err != nil {
		return nil, err
	}

	last := result.Snapshots[len(result.Snapshots)-1]
	run, err := h.BacktestRunRepository.Add(h.Db, model.BacktestRun{
		InputHash:   inputHash,
		Parameters:  string(paramsBytes),
		StartTime:   timePtr(start),
		EndTime:     timePtr(end),
		PeriodCount: int32(len(result.Snapshots)),
		FinalValue:  last.TotalValue,
		TotalReturn: result.Metrics.TotalReturn,
		Metrics:     string(metricsBytes),
		Snapshots:   string(snapshotBytes),
	})
	if err != nil {
		return nil, err
	}

	return &run.BacktestRunID, nil
}

func (h ApiHandler) saveProfile(ctx context.Context, profile *domain.Profile, runID *uuid.UUID) {
	log := logger.FromContext(ctx)
	if bytes, err := profile.ToJsonBytes(); err == nil {
		log.Debugw("backtest latency", "profile", string(bytes))
	}
	if h.LatencyTrackingRepository == nil {
		return
	}
	if err := h.LatencyTrackingRepository.Add(profile, runID); err != nil {
		log.Errorw("failed to save latency profile", "error", err.Error())
	}
}
