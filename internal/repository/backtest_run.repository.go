package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"hedgebacktest/internal/db/models/postgres/public/model"
	"hedgebacktest/internal/db/models/postgres/public/table"
	"time"

	"github.com/go-jet/jet/v2/postgres"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/google/uuid"
)

var ErrBacktestRunNotFound = errors.New("backtest run not found")

type BacktestRunRepository interface {
	Add(db qrm.Queryable, m model.BacktestRun) (*model.BacktestRun, error)
	Get(id uuid.UUID) (*model.BacktestRun, error)
	// GetLatestByInputHash returns nil if the inputs were never run
	GetLatestByInputHash(inputHash string) (*model.BacktestRun, error)
}

type backtestRunRepositoryHandler struct {
	Db *sql.DB
}

func NewBacktestRunRepository(db *sql.DB) BacktestRunRepository {
	return backtestRunRepositoryHandler{db}
}

func (h backtestRunRepositoryHandler) Add(db qrm.Queryable, m model.BacktestRun) (*model.BacktestRun, error) {
	m.CreatedAt = time.Now().UTC()

	query := table.BacktestRun.
		INSERT(table.BacktestRun.MutableColumns).
		MODEL(m).
		RETURNING(table.BacktestRun.AllColumns)

	out := model.BacktestRun{}
	err := query.Query(db, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to insert backtest run: %w", err)
	}

	return &out, nil
}

func (h backtestRunRepositoryHandler) Get(id uuid.UUID) (*model.BacktestRun, error) {
	query := table.BacktestRun.
		SELECT(table.BacktestRun.AllColumns).
		WHERE(table.BacktestRun.BacktestRunID.EQ(postgres.UUID(id)))

	out := model.BacktestRun{}
	err := query.Query(h.Db, &out)
	if errors.Is(err, qrm.ErrNoRows) {
		return nil, ErrBacktestRunNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get backtest run %s: %w", id.String(), err)
	}

	return &out, nil
}

func (h backtestRunRepositoryHandler) GetLatestByInputHash(inputHash string) (*model.BacktestRun, error) {
	query := table.BacktestRun.
		SELECT(table.BacktestRun.AllColumns).
		WHERE(table.BacktestRun.InputHash.EQ(postgres.String(inputHash))).
		ORDER_BY(table.BacktestRun.CreatedAt.DESC()).
		LIMIT(1)

	out := model.BacktestRun{}
	err := query.Query(h.Db, &out)
	if errors.Is(err, qrm.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get backtest run by hash: %w", err)
	}

	return &out, nil
}
