package data

import (
	"context"
	"fmt"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/logger"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MarketDataService supplies the ordered market points a run folds over.
// it is the only place the simulator's inputs come from outside the
// process
type MarketDataService interface {
	List(ctx context.Context, start, end time.Time) ([]domain.MarketPoint, error)
}

func NewInMemoryMarketDataService(points []domain.MarketPoint) MarketDataService {
	sorted := make([]domain.MarketPoint, len(points))
	copy(sorted, points)
	sortPoints(sorted)
	return inMemoryMarketDataServiceHandler{points: sorted}
}

type inMemoryMarketDataServiceHandler struct {
	points []domain.MarketPoint
}

func (h inMemoryMarketDataServiceHandler) List(ctx context.Context, start, end time.Time) ([]domain.MarketPoint, error) {
	return filterRange(h.points, start, end), nil
}

const (
	referenceFile  = "reference.csv"
	candidatesFile = "candidates.csv"
)

// NewCsvMarketDataService reads reference.csv and candidates.csv out of
// dir. files are parsed on first use and kept in memory
func NewCsvMarketDataService(dir string) MarketDataService {
	return &csvMarketDataServiceHandler{
		Dir:       dir,
		ReadMutex: &sync.RWMutex{},
	}
}

type csvMarketDataServiceHandler struct {
	Dir       string
	ReadMutex *sync.RWMutex
	points    []domain.MarketPoint
}

func (h *csvMarketDataServiceHandler) load(ctx context.Context) ([]domain.MarketPoint, error) {
	h.ReadMutex.RLock()
	if h.points != nil {
		defer h.ReadMutex.RUnlock()
		return h.points, nil
	}
	h.ReadMutex.RUnlock()

	h.ReadMutex.Lock()
	defer h.ReadMutex.Unlock()
	if h.points != nil {
		return h.points, nil
	}

	referenceCsv, err := os.Open(filepath.Join(h.Dir, referenceFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open reference prices: %w", err)
	}
	defer referenceCsv.Close()

	candidatesCsv, err := os.Open(filepath.Join(h.Dir, candidatesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate quotes: %w", err)
	}
	defer candidatesCsv.Close()

	points, err := LoadMarketPointsCsv(referenceCsv, candidatesCsv)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Infow("loaded market data", "dir", h.Dir, "points", len(points))

	h.points = points
	return points, nil
}

func (h *csvMarketDataServiceHandler) List(ctx context.Context, start, end time.Time) ([]domain.MarketPoint, error) {
	points, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	return filterRange(points, start, end), nil
}

func sortPoints(points []domain.MarketPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
}

// filterRange keeps points in [start, end]. a zero bound is open
func filterRange(points []domain.MarketPoint, start, end time.Time) []domain.MarketPoint {
	out := []domain.MarketPoint{}
	for _, p := range points {
		if !start.IsZero() && p.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && p.Timestamp.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
