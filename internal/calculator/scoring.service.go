package calculator

import (
	"fmt"
	"hedgebacktest/internal/domain"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
)

/**

every period we rank the alt universe and decide what to short. four
factors, each squashed into [0, 1] so that the user supplied weights are
comparable regardless of the raw units:

  volume       (N - rank + 1) / N          rank 1 is the most traded
  price change (max - x) / (max - min)     biggest losers score highest
  volatility   (max - x) / (max - min)     calmer assets score highest
  funding      (x - min) / (max - min)     positive funding pays the short

an asset only qualifies if it is doing worse than the reference asset over
24h. shorting something that outperforms btc doesn't hedge anything.

*/

type ScoreShortCandidatesInput struct {
	Ranking                 []domain.CandidateQuote
	ReferenceSymbol         string
	ReferenceAsset24hChange float64
	Weights                 domain.FactorWeights
	MaxShortPositions       int
}

func ScoreShortCandidates(in ScoreShortCandidatesInput) (*domain.ShortSelectionResult, error) {
	if in.MaxShortPositions < 1 {
		return nil, fmt.Errorf("max short positions must be >= 1, got %d", in.MaxShortPositions)
	}

	candidates := lo.Filter(in.Ranking, func(c domain.CandidateQuote, _ int) bool {
		return c.Symbol != in.ReferenceSymbol
	})
	if len(candidates) == 0 {
		return &domain.ShortSelectionResult{
			Selected: []domain.ShortCandidateScore{},
			Rejected: []domain.ShortCandidateScore{},
			Reason:   "no short candidates in ranking",
		}, nil
	}

	n := float64(len(candidates))
	priceChangeScaler := minMaxScaler(lo.Map(candidates, func(c domain.CandidateQuote, _ int) float64 {
		return c.PriceChange24h
	}))
	volatilityScaler := minMaxScaler(lo.Map(candidates, func(c domain.CandidateQuote, _ int) float64 {
		return c.Volatility24h
	}))
	fundingRates := []float64{}
	for _, c := range candidates {
		if c.FundingRate != nil {
			fundingRates = append(fundingRates, *c.FundingRate)
		}
	}
	fundingRateScaler := minMaxScaler(fundingRates)

	eligible := []domain.ShortCandidateScore{}
	rejected := []domain.ShortCandidateScore{}
	for _, c := range candidates {
		score := domain.ShortCandidateScore{
			Symbol:           c.Symbol,
			Rank:             c.Rank,
			VolumeScore:      clamp01((n - float64(c.Rank) + 1) / n),
			PriceChangeScore: 1 - priceChangeScaler(c.PriceChange24h),
			VolatilityScore:  1 - volatilityScaler(c.Volatility24h),
			FundingRateScore: 0.5,
		}
		if c.FundingRate != nil {
			score.FundingRateScore = fundingRateScaler(*c.FundingRate)
		}
		score.TotalScore = score.PriceChangeScore*in.Weights.PriceChangeWeight +
			score.VolumeScore*in.Weights.VolumeWeight +
			score.VolatilityScore*in.Weights.VolatilityWeight +
			score.FundingRateScore*in.Weights.FundingRateWeight

		// strict - matching the reference is not an edge
		if c.PriceChange24h < in.ReferenceAsset24hChange {
			score.Eligible = true
			eligible = append(eligible, score)
		} else {
			score.Reason = fmt.Sprintf(
				"24h change %.4f is not below reference change %.4f",
				c.PriceChange24h,
				in.ReferenceAsset24hChange,
			)
			rejected = append(rejected, score)
		}
	}

	sortByScore(eligible)

	selected := []domain.ShortCandidateScore{}
	notSelected := []domain.ShortCandidateScore{}
	for i, score := range eligible {
		if i < in.MaxShortPositions {
			score.Selected = true
			score.Reason = fmt.Sprintf("selected #%d of %d eligible", i+1, len(eligible))
			selected = append(selected, score)
		} else {
			score.Reason = fmt.Sprintf("eligible #%d, outside max short positions %d", i+1, in.MaxShortPositions)
			notSelected = append(notSelected, score)
		}
	}

	reason := fmt.Sprintf("no eligible short candidates: none of %d underperform reference", len(candidates))
	if len(selected) > 0 {
		reason = fmt.Sprintf(
			"selected %d of %d eligible short candidates (%d scored)",
			len(selected),
			len(eligible),
			len(candidates),
		)
	}

	return &domain.ShortSelectionResult{
		Selected: selected,
		Rejected: append(notSelected, rejected...),
		Reason:   reason,
	}, nil
}

// sortByScore orders desc by total score. ties go to the better volume
// rank so results are deterministic
func sortByScore(scores []domain.ShortCandidateScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		if scores[i].Rank != scores[j].Rank {
			return scores[i].Rank < scores[j].Rank
		}
		return scores[i].Symbol < scores[j].Symbol
	})
}

// minMaxScaler maps values onto [0, 1]. with no dispersion (or no data)
// everything lands on 0.5
func minMaxScaler(values []float64) func(float64) float64 {
	low, errLow := stats.Min(values)
	high, errHigh := stats.Max(values)
	if errLow != nil || errHigh != nil || high == low {
		return func(float64) float64 { return 0.5 }
	}
	return func(v float64) float64 {
		return clamp01((v - low) / (high - low))
	}
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
