package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"hedgebacktest/internal/db/models/postgres/public/model"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/logger"
	"hedgebacktest/internal/repository"
	"hedgebacktest/internal/service"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApiHandler struct {
	// nil when no database is configured. runs are then not persisted
	Db                        *sql.DB
	BacktestHandler           service.BacktestHandler
	BacktestRunRepository     repository.BacktestRunRepository
	LatencyTrackingRepository repository.LatencyTrackingRepository
	ApiRequestRepository      repository.ApiRequestRepository
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(m.logRequestMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to hedgebacktest"})
	})
	router.POST("/backtest", m.backtest)
	router.POST("/backtestBatch", m.backtestBatch)
	router.POST("/benchmark", m.benchmark)
	router.GET("/runs/:id", m.getRun)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	router := m.InitializeRouterEngine()
	return router.Run(fmt.Sprintf(":%d", port))
}

// statusForError maps domain errors onto client errors. anything else is
// our fault
func statusForError(err error) int {
	validationErr := &domain.ValidationError{}
	emptyInputErr := &domain.EmptyInputError{}
	arithmeticErr := &domain.ArithmeticError{}

	switch {
	case errors.As(err, &validationErr), errors.As(err, &emptyInputErr):
		return http.StatusBadRequest
	case errors.As(err, &arithmeticErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func returnErrorJson(err error, c *gin.Context) {
	returnErrorJsonCode(err, c, statusForError(err))
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	logger.FromContext(c.Request.Context()).Errorw(
		"request failed",
		"route", c.Request.URL.Path,
		"status", code,
		"error", err.Error(),
	)
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func int64Ptr(i int64) *int64 {
	return &i
}
func int32Ptr(i int32) *int32 {
	return &i
}
func strPtr(s string) *string {
	return &s
}

func (m ApiHandler) logRequestMiddleware(c *gin.Context) {
	requestID := uuid.New()
	c.Set("requestID", requestID.String())
	c.Header("X-Request-ID", requestID.String())

	log := logger.FromContext(c.Request.Context()).With("requestID", requestID.String())
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

	start := time.Now().UTC()
	var req *model.APIRequest
	if m.ApiRequestRepository != nil && m.Db != nil {
		body, err := c.GetRawData()
		if err != nil {
			log.Warnw("failed to read request body", "error", err.Error())
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		req, err = m.ApiRequestRepository.Add(m.Db, model.APIRequest{
			RequestID:   requestID,
			Method:      c.Request.Method,
			Route:       c.Request.URL.Path,
			IPAddress:   strPtr(c.ClientIP()),
			RequestBody: strPtr(string(body)),
			StartTs:     start,
		})
		if err != nil {
			log.Warnw("failed to record request", "error", err.Error())
		}
	}

	c.Next()

	durationMs := time.Since(start).Milliseconds()
	log.Infow(
		"handled request",
		"method", c.Request.Method,
		"route", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"durationMs", durationMs,
	)

	if req != nil {
		req.DurationMs = int64Ptr(durationMs)
		req.StatusCode = int32Ptr(int32(c.Writer.Status()))
		if err := m.ApiRequestRepository.Update(m.Db, *req); err != nil {
			log.Warnw("failed to record request", "error", err.Error())
		}
	}
}

// parseTime takes a bare date or RFC3339. empty is the zero time, which
// the market data service treats as unbounded
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "date", Message: fmt.Sprintf("could not parse '%s'", s)}
	}
	return t.UTC(), nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	startTime, err := parseTime(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endTime, err := parseTime(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !startTime.IsZero() && !endTime.IsZero() && endTime.Before(startTime) {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "end", Message: "end date cannot be before start date"}
	}
	return startTime, endTime, nil
}

func formatSeries(series map[time.Time]float64) map[string]float64 {
	out := map[string]float64{}
	for k, v := range series {
		out[k.UTC().Format(time.RFC3339)] = v
	}
	return out
}
