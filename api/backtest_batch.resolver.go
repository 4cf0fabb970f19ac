package api

import (
	"encoding/json"
	"fmt"
	"hedgebacktest/internal/domain"

	"github.com/gin-gonic/gin"
)

type backtestBatchRequest struct {
	// each set is applied over the defaults
	ParamSets []json.RawMessage    `json:"paramSets"`
	Start     string               `json:"start"`
	End       string               `json:"end"`
	Points    []domain.MarketPoint `json:"points"`
}

type backtestBatchResult struct {
	Params     domain.StrategyParameters `json:"params"`
	Metrics    domain.PerformanceMetrics `json:"metrics"`
	FinalValue float64                   `json:"finalValue"`
}

func (h ApiHandler) backtestBatch(c *gin.Context) {
	var requestBody backtestBatchRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, 400)
		return
	}
	if len(requestBody.ParamSets) == 0 {
		returnErrorJsonCode(fmt.Errorf("at least one parameter set is required"), c, 400)
		return
	}

	paramSets := []domain.StrategyParameters{}
	for i, raw := range requestBody.ParamSets {
		params := domain.DefaultStrategyParameters()
		if err := json.Unmarshal(raw, &params); err != nil {
			returnErrorJsonCode(fmt.Errorf("failed to parse parameter set %d: %w", i, err), c, 400)
			return
		}
		paramSets = append(paramSets, params)
	}

	start, end, err := parseRange(requestBody.Start, requestBody.End)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	ctx := c.Request.Context()
	points, err := h.resolvePoints(ctx, requestBody.Points, start, end)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	results, err := h.BacktestHandler.SimulateBatch(ctx, paramSets, points)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to run backtests: %w", err), c)
		return
	}

	out := []backtestBatchResult{}
	for _, r := range results {
		out = append(out, backtestBatchResult{
			Params:     r.Params,
			Metrics:    r.Metrics,
			FinalValue: r.Snapshots[len(r.Snapshots)-1].TotalValue,
		})
	}

	c.JSON(200, out)
}
