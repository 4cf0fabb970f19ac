package calculator

import (
	"fmt"
	"hedgebacktest/internal/domain"
	"sort"
	"time"
)

// ReferenceBenchmark converts the reference asset prices into % change
// from the first point, i.e. what buy-and-hold would have done. points
// are sampled every granularity; a point at or after the next target
// fills it
func ReferenceBenchmark(points []domain.MarketPoint, granularity time.Duration) (map[time.Time]float64, error) {
	if len(points) == 0 {
		return nil, &domain.EmptyInputError{Message: "no market points for benchmark"}
	}
	if granularity <= 0 {
		return nil, fmt.Errorf("benchmark granularity must be positive, got %s", granularity)
	}

	sorted := make([]domain.MarketPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	first := sorted[0]
	if first.ReferenceAssetPrice <= 0 {
		return nil, &domain.ArithmeticError{
			Period:    1,
			Timestamp: first.Timestamp,
			Message:   fmt.Sprintf("cannot compute change from price %f", first.ReferenceAssetPrice),
		}
	}

	out := map[time.Time]float64{
		first.Timestamp: 0,
	}
	nextTarget := first.Timestamp.Add(granularity)
	for _, p := range sorted[1:] {
		if p.Timestamp.Before(nextTarget) {
			continue
		}
		out[p.Timestamp] = 100 * (p.ReferenceAssetPrice - first.ReferenceAssetPrice) / first.ReferenceAssetPrice
		for !nextTarget.After(p.Timestamp) {
			nextTarget = nextTarget.Add(granularity)
		}
	}

	return out, nil
}
