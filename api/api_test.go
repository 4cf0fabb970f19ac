package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hedgebacktest/internal/data"
	"hedgebacktest/internal/db/models/postgres/public/model"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/repository"
	mock_repository "hedgebacktest/internal/repository/mocks"
	"hedgebacktest/internal/service"
	"hedgebacktest/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testPoints() []domain.MarketPoint {
	start := util.NewDate(2024, 1, 1)
	return []domain.MarketPoint{
		{Timestamp: start, ReferenceAssetPrice: 100},
		{Timestamp: start.Add(8 * time.Hour), ReferenceAssetPrice: 110},
		{Timestamp: start.Add(16 * time.Hour), ReferenceAssetPrice: 121},
	}
}

func doRequest(t *testing.T, handler ApiHandler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.InitializeRouterEngine().ServeHTTP(w, req)
	return w
}

func Test_statusForError(t *testing.T) {
	require.Equal(t, 400, statusForError(fmt.Errorf("wrapped: %w", &domain.ValidationError{Field: "x"})))
	require.Equal(t, 400, statusForError(&domain.EmptyInputError{}))
	require.Equal(t, 422, statusForError(fmt.Errorf("wrapped: %w", &domain.ArithmeticError{})))
	require.Equal(t, 500, statusForError(errors.New("boom")))
}

func Test_backtest(t *testing.T) {
	t.Run("inline points without storage", func(t *testing.T) {
		handler := ApiHandler{}
		w := doRequest(t, handler, "POST", "/backtest", map[string]any{
			"params": map[string]any{"shortAlt": false, "tradingFeeRate": 0},
			"points": testPoints(),
		})
		require.Equal(t, 200, w.Code, w.Body.String())
		require.NotEmpty(t, w.Header().Get("X-Request-ID"))

		response := BacktestResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Nil(t, response.RunID)
		require.Len(t, response.Snapshots, 3)
		require.Equal(t, 3, response.Metrics.PeriodCount)
		// defaults fill in what the request left out
		require.Equal(t, 0.5, response.Params.BtcRatio)
		require.False(t, response.Params.ShortAlt)
		require.InDelta(t, 10500, response.Snapshots[1].TotalValue, 1e-6)
		require.InDelta(t, 21, response.Benchmark["2024-01-01T16:00:00Z"], 1e-9)
	})

	t.Run("date range from market data and stored run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runRepository := mock_repository.NewMockBacktestRunRepository(ctrl)
		runID := uuid.New()
		runRepository.EXPECT().GetLatestByInputHash(gomock.Any()).Return(nil, nil)
		runRepository.EXPECT().
			Add(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, m model.BacktestRun) (*model.BacktestRun, error) {
				require.Equal(t, int32(2), m.PeriodCount)
				require.NotEmpty(t, m.InputHash)
				require.NotNil(t, m.StartTime)
				m.BacktestRunID = runID
				return &m, nil
			})

		handler := ApiHandler{
			BacktestHandler: service.BacktestHandler{
				MarketDataService: data.NewInMemoryMarketDataService(testPoints()),
			},
			BacktestRunRepository: runRepository,
		}
		w := doRequest(t, handler, "POST", "/backtest", map[string]any{
			"params": map[string]any{"shortAlt": false},
			"start":  "2024-01-01",
			"end":    "2024-01-01T08:00:00Z",
		})
		require.Equal(t, 200, w.Code, w.Body.String())

		response := BacktestResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, runID, *response.RunID)
		require.Len(t, response.Snapshots, 2)
	})

	t.Run("changed market data stores a new run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runRepository := mock_repository.NewMockBacktestRunRepository(ctrl)
		hashes := []string{}
		runRepository.EXPECT().GetLatestByInputHash(gomock.Any()).
			DoAndReturn(func(hash string) (*model.BacktestRun, error) {
				hashes = append(hashes, hash)
				return nil, nil
			}).
			Times(2)
		runRepository.EXPECT().Add(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, m model.BacktestRun) (*model.BacktestRun, error) {
				m.BacktestRunID = uuid.New()
				return &m, nil
			}).
			Times(2)

		grown := append(testPoints(), domain.MarketPoint{
			Timestamp:           util.NewDate(2024, 1, 2),
			ReferenceAssetPrice: 133.1,
		})
		runIDs := []uuid.UUID{}
		for _, points := range [][]domain.MarketPoint{testPoints(), grown} {
			handler := ApiHandler{
				BacktestHandler: service.BacktestHandler{
					MarketDataService: data.NewInMemoryMarketDataService(points),
				},
				BacktestRunRepository: runRepository,
			}
			w := doRequest(t, handler, "POST", "/backtest", map[string]any{
				"params": map[string]any{"shortAlt": false},
			})
			require.Equal(t, 200, w.Code, w.Body.String())

			response := BacktestResponse{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			require.Len(t, response.Snapshots, len(points))
			runIDs = append(runIDs, *response.RunID)
		}

		require.Len(t, hashes, 2)
		require.NotEqual(t, hashes[0], hashes[1])
		require.NotEqual(t, runIDs[0], runIDs[1])
	})

	t.Run("identical inputs reuse the stored run", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runRepository := mock_repository.NewMockBacktestRunRepository(ctrl)
		existing := model.BacktestRun{BacktestRunID: uuid.New()}
		runRepository.EXPECT().GetLatestByInputHash(gomock.Any()).Return(&existing, nil)

		handler := ApiHandler{BacktestRunRepository: runRepository}
		w := doRequest(t, handler, "POST", "/backtest", map[string]any{
			"params": map[string]any{"shortAlt": false},
			"points": testPoints(),
		})
		require.Equal(t, 200, w.Code, w.Body.String())

		response := BacktestResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, existing.BacktestRunID, *response.RunID)
	})

	t.Run("invalid parameters are a bad request", func(t *testing.T) {
		w := doRequest(t, ApiHandler{}, "POST", "/backtest", map[string]any{
			"params": map[string]any{"btcRatio": 2},
			"points": testPoints(),
		})
		require.Equal(t, 400, w.Code)
		require.Contains(t, w.Body.String(), "btcRatio")
	})

	t.Run("no data is a bad request", func(t *testing.T) {
		w := doRequest(t, ApiHandler{}, "POST", "/backtest", map[string]any{})
		require.Equal(t, 400, w.Code)
	})

	t.Run("zero price is unprocessable", func(t *testing.T) {
		points := testPoints()
		points[1].ReferenceAssetPrice = 0
		w := doRequest(t, ApiHandler{}, "POST", "/backtest", map[string]any{
			"params": map[string]any{"shortAlt": false},
			"points": points,
		})
		require.Equal(t, 422, w.Code, w.Body.String())
	})

	t.Run("unknown granularity", func(t *testing.T) {
		w := doRequest(t, ApiHandler{}, "POST", "/backtest", map[string]any{
			"granularity": "fortnightly",
			"points":      testPoints(),
		})
		require.Equal(t, 400, w.Code)
	})
}

func Test_backtestBatch(t *testing.T) {
	w := doRequest(t, ApiHandler{}, "POST", "/backtestBatch", map[string]any{
		"paramSets": []map[string]any{
			{"shortAlt": false, "tradingFeeRate": 0, "btcRatio": 0},
			{"shortAlt": false, "tradingFeeRate": 0, "btcRatio": 1},
		},
		"points": testPoints(),
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	response := []backtestBatchResult{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 2)
	require.InDelta(t, 10000, response[0].FinalValue, 1e-6)
	require.InDelta(t, 12100, response[1].FinalValue, 1e-6)

	t.Run("needs a parameter set", func(t *testing.T) {
		w := doRequest(t, ApiHandler{}, "POST", "/backtestBatch", map[string]any{"points": testPoints()})
		require.Equal(t, 400, w.Code)
	})
}

func Test_benchmark(t *testing.T) {
	handler := ApiHandler{
		BacktestHandler: service.BacktestHandler{
			MarketDataService: data.NewInMemoryMarketDataService(testPoints()),
		},
	}
	w := doRequest(t, handler, "POST", "/benchmark", map[string]any{
		"granularity": "8h",
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	response := benchmarkResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 3)
	require.InDelta(t, 10, response["2024-01-01T08:00:00Z"], 1e-9)

	t.Run("end before start", func(t *testing.T) {
		w := doRequest(t, handler, "POST", "/benchmark", map[string]any{
			"start": "2024-02-01",
			"end":   "2024-01-01",
		})
		require.Equal(t, 400, w.Code)
	})
}

func Test_getRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	runRepository := mock_repository.NewMockBacktestRunRepository(ctrl)
	handler := ApiHandler{BacktestRunRepository: runRepository}

	t.Run("found", func(t *testing.T) {
		run := model.BacktestRun{
			BacktestRunID: uuid.New(),
			InputHash:     "abc",
			Parameters:    `{"btcRatio":0.5}`,
			PeriodCount:   2,
			FinalValue:    10100,
			Metrics:       `{"totalReturn":0.01}`,
			Snapshots:     `[]`,
		}
		runRepository.EXPECT().Get(run.BacktestRunID).Return(&run, nil)

		w := doRequest(t, handler, "GET", "/runs/"+run.BacktestRunID.String(), nil)
		require.Equal(t, 200, w.Code, w.Body.String())

		response := getRunResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, run.BacktestRunID, response.RunID)
		require.JSONEq(t, `{"totalReturn":0.01}`, string(response.Metrics))
	})

	t.Run("missing", func(t *testing.T) {
		id := uuid.New()
		runRepository.EXPECT().Get(id).Return(nil, repository.ErrBacktestRunNotFound)

		w := doRequest(t, handler, "GET", "/runs/"+id.String(), nil)
		require.Equal(t, 404, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := doRequest(t, handler, "GET", "/runs/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func Test_hashBacktestInput(t *testing.T) {
	params := domain.DefaultStrategyParameters()
	h1, err := hashBacktestInput(params, util.NewDate(2024, 1, 1), time.Time{}, nil)
	require.NoError(t, err)

	params.ReferenceSymbol = ""
	h2, err := hashBacktestInput(params, util.NewDate(2024, 1, 1), time.Time{}, nil)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	params.BtcRatio = 0.6
	h3, err := hashBacktestInput(params, util.NewDate(2024, 1, 1), time.Time{}, nil)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)

	// same params and range over different market data
	h4, err := hashBacktestInput(params, time.Time{}, time.Time{}, testPoints())
	require.NoError(t, err)
	h5, err := hashBacktestInput(params, time.Time{}, time.Time{}, testPoints()[:2])
	require.NoError(t, err)
	require.NotEqual(t, h4, h5)
}
