package api

import (
	"fmt"
	"hedgebacktest/internal/calculator"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type benchmarkResponse map[string]float64

type benchmarkRequest struct {
	Start       string               `json:"start"`
	End         string               `json:"end"`
	Granularity string               `json:"granularity"`
	Points      []domain.MarketPoint `json:"points"`
}

func (h ApiHandler) benchmark(c *gin.Context) {
	var requestBody benchmarkRequest

	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, 400)
		return
	}

	start, end, err := parseRange(requestBody.Start, requestBody.End)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	granularity := time.Hour * 24
	if requestBody.Granularity != "" {
		hours, ok := util.GranularityFromString(requestBody.Granularity)
		if !ok {
			returnErrorJsonCode(fmt.Errorf("unknown granularity '%s'", requestBody.Granularity), c, 400)
			return
		}
		granularity = time.Duration(hours * float64(time.Hour))
	}

	points, err := h.resolvePoints(c.Request.Context(), requestBody.Points, start, end)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	results, err := calculator.ReferenceBenchmark(points, granularity)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, benchmarkResponse(formatSeries(results)))
}
