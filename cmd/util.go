package cmd

import (
	"database/sql"
	"fmt"
	"hedgebacktest/api"
	"hedgebacktest/internal/data"
	"hedgebacktest/internal/repository"
	"hedgebacktest/internal/util"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func CloseDependencies(handler *api.ApiHandler) {
	if handler.Db == nil {
		return
	}
	if err := handler.Db.Close(); err != nil {
		zap.S().Errorw("failed to close db", "error", err.Error())
	}
}

// InitializeDependencies wires the api from secrets. market data and the
// database are both optional: without market data requests must carry
// their own points, without a database runs are not stored
func InitializeDependencies() (*api.ApiHandler, *util.Secrets, error) {
	secrets, err := util.LoadSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	apiHandler := &api.ApiHandler{}

	if secrets.MarketDataDir != "" {
		apiHandler.BacktestHandler.MarketDataService = data.NewCsvMarketDataService(secrets.MarketDataDir)
	} else {
		zap.S().Warn("no market data dir configured, requests must include points")
	}

	if secrets.Db.Configured() {
		dbConn, err := sql.Open("postgres", secrets.Db.ToConnectionStr())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		apiHandler.Db = dbConn
		apiHandler.BacktestRunRepository = repository.NewBacktestRunRepository(dbConn)
		apiHandler.LatencyTrackingRepository = repository.NewLatencyTrackingRepository(dbConn)
		apiHandler.ApiRequestRepository = repository.ApiRequestRepositoryHandler{}
	} else {
		zap.S().Warn("no db configured, backtest runs will not be stored")
	}

	return apiHandler, secrets, nil
}
