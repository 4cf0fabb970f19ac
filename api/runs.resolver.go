package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"hedgebacktest/internal/repository"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type getRunResponse struct {
	RunID       uuid.UUID       `json:"runID"`
	InputHash   string          `json:"inputHash"`
	CreatedAt   time.Time       `json:"createdAt"`
	PeriodCount int32           `json:"periodCount"`
	FinalValue  float64         `json:"finalValue"`
	Params      json.RawMessage `json:"params"`
	Metrics     json.RawMessage `json:"metrics"`
	Snapshots   json.RawMessage `json:"snapshots"`
}

func (h ApiHandler) getRun(c *gin.Context) {
	if h.BacktestRunRepository == nil {
		returnErrorJsonCode(fmt.Errorf("run storage is not configured"), c, 404)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		returnErrorJsonCode(fmt.Errorf("invalid run id: %w", err), c, 400)
		return
	}

	run, err := h.BacktestRunRepository.Get(id)
	if errors.Is(err, repository.ErrBacktestRunNotFound) {
		returnErrorJsonCode(err, c, 404)
		return
	} else if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, getRunResponse{
		RunID:       run.BacktestRunID,
		InputHash:   run.InputHash,
		CreatedAt:   run.CreatedAt,
		PeriodCount: run.PeriodCount,
		FinalValue:  run.FinalValue,
		Params:      json.RawMessage(run.Parameters),
		Metrics:     json.RawMessage(run.Metrics),
		Snapshots:   json.RawMessage(run.Snapshots),
	})
}
