package repository

import (
	"database/sql"
	"hedgebacktest/internal/db/models/postgres/public/model"
	"hedgebacktest/internal/db/models/postgres/public/table"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/util"
	"testing"
	"time"

	"github.com/go-jet/jet/v2/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestDbOrSkip(t *testing.T) *sql.DB {
	db, err := util.NewTestDb()
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("test db unavailable: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func cleanupBacktestRuns(db *sql.DB) error {
	if _, err := table.APIRequest.DELETE().WHERE(postgres.Bool(true)).Exec(db); err != nil {
		return err
	}
	if _, err := table.LatencyTracking.DELETE().WHERE(postgres.Bool(true)).Exec(db); err != nil {
		return err
	}
	if _, err := table.BacktestRun.DELETE().WHERE(postgres.Bool(true)).Exec(db); err != nil {
		return err
	}
	return nil
}

func Test_backtestRunRepositoryHandler(t *testing.T) {
	db := newTestDbOrSkip(t)
	require.NoError(t, cleanupBacktestRuns(db))
	defer cleanupBacktestRuns(db)

	repo := NewBacktestRunRepository(db)
	start := util.NewDate(2024, 1, 1)

	inserted, err := repo.Add(db, model.BacktestRun{
		InputHash:   "abc",
		Parameters:  `{"btcRatio": 0.5}`,
		StartTime:   &start,
		PeriodCount: 3,
		FinalValue:  10100,
		TotalReturn: 0.01,
		Metrics:     `{}`,
		Snapshots:   `[]`,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, inserted.BacktestRunID)

	got, err := repo.Get(inserted.BacktestRunID)
	require.NoError(t, err)
	require.Equal(t, "abc", got.InputHash)
	require.Equal(t, int32(3), got.PeriodCount)

	latest, err := repo.GetLatestByInputHash("abc")
	require.NoError(t, err)
	require.Equal(t, inserted.BacktestRunID, latest.BacktestRunID)

	missing, err := repo.GetLatestByInputHash("nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	_, err = repo.Get(uuid.New())
	require.ErrorIs(t, err, ErrBacktestRunNotFound)

	profile, endProfile := domain.NewProfile()
	profile.StartNewSpan("simulate")
	endProfile()
	err = NewLatencyTrackingRepository(db).Add(profile, &inserted.BacktestRunID)
	require.NoError(t, err)
}

func Test_ApiRequestRepositoryHandler(t *testing.T) {
	db := newTestDbOrSkip(t)
	require.NoError(t, cleanupBacktestRuns(db))
	defer cleanupBacktestRuns(db)

	repo := ApiRequestRepositoryHandler{}
	requestID := uuid.New()
	req, err := repo.Add(db, model.APIRequest{
		RequestID: requestID,
		Method:    "POST",
		Route:     "/backtest",
		StartTs:   time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Equal(t, requestID, req.RequestID)
	require.Nil(t, req.StatusCode)

	durationMs := int64(12)
	statusCode := int32(200)
	req.DurationMs = &durationMs
	req.StatusCode = &statusCode
	require.NoError(t, repo.Update(db, *req))
}
