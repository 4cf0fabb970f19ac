package domain

import (
	"fmt"
	"math"
	"time"
)

const DefaultReferenceSymbol = "BTCUSDT"

type FactorWeights struct {
	PriceChangeWeight float64 `json:"priceChangeWeight" yaml:"priceChangeWeight"`
	VolumeWeight      float64 `json:"volumeWeight" yaml:"volumeWeight"`
	VolatilityWeight  float64 `json:"volatilityWeight" yaml:"volatilityWeight"`
	FundingRateWeight float64 `json:"fundingRateWeight" yaml:"fundingRateWeight"`
}

// StrategyParameters configures one run. It is never mutated by the
// simulator.
type StrategyParameters struct {
	InitialCapital    float64       `json:"initialCapital" yaml:"initialCapital"`
	BtcRatio          float64       `json:"btcRatio" yaml:"btcRatio"`
	LongBtc           bool          `json:"longBtc" yaml:"longBtc"`
	ShortAlt          bool          `json:"shortAlt" yaml:"shortAlt"`
	TradingFeeRate    float64       `json:"tradingFeeRate" yaml:"tradingFeeRate"`
	MaxShortPositions int           `json:"maxShortPositions" yaml:"maxShortPositions"`
	Weights           FactorWeights `json:"weights" yaml:"weights"`
	GranularityHours  float64       `json:"granularityHours" yaml:"granularityHours"`
	ReferenceSymbol   string        `json:"referenceSymbol,omitempty" yaml:"referenceSymbol,omitempty"`
}

func DefaultStrategyParameters() StrategyParameters {
	return StrategyParameters{
		InitialCapital:    10_000,
		BtcRatio:          0.5,
		LongBtc:           true,
		ShortAlt:          true,
		TradingFeeRate:    0.0004,
		MaxShortPositions: 5,
		Weights: FactorWeights{
			PriceChangeWeight: 0.4,
			VolumeWeight:      0.2,
			VolatilityWeight:  0.1,
			FundingRateWeight: 0.3,
		},
		GranularityHours: 8,
		ReferenceSymbol:  DefaultReferenceSymbol,
	}
}

func (p StrategyParameters) Reference() string {
	if p.ReferenceSymbol == "" {
		return DefaultReferenceSymbol
	}
	return p.ReferenceSymbol
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (p StrategyParameters) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		}
	}

	if !finite(p.InitialCapital) || p.InitialCapital <= 0 {
		return invalid("initialCapital", "must be > 0, got %f", p.InitialCapital)
	}
	if !finite(p.BtcRatio) || p.BtcRatio < 0 || p.BtcRatio > 1 {
		return invalid("btcRatio", "must be between [0, 1], got %f", p.BtcRatio)
	}
	if !finite(p.TradingFeeRate) || p.TradingFeeRate < 0 {
		return invalid("tradingFeeRate", "must be >= 0, got %f", p.TradingFeeRate)
	}
	if p.MaxShortPositions < 1 {
		return invalid("maxShortPositions", "must be >= 1, got %d", p.MaxShortPositions)
	}
	if !finite(p.GranularityHours) || p.GranularityHours <= 0 {
		return invalid("granularityHours", "must be > 0, got %f", p.GranularityHours)
	}

	weights := map[string]float64{
		"weights.priceChangeWeight": p.Weights.PriceChangeWeight,
		"weights.volumeWeight":      p.Weights.VolumeWeight,
		"weights.volatilityWeight":  p.Weights.VolatilityWeight,
		"weights.fundingRateWeight": p.Weights.FundingRateWeight,
	}
	for field, w := range weights {
		if !finite(w) || w < 0 {
			return invalid(field, "must be a non-negative number, got %f", w)
		}
	}

	return nil
}

type CandidateQuote struct {
	Symbol         string   `json:"symbol"`
	Rank           int      `json:"rank"`
	Price          float64  `json:"price"`
	PriceChange24h float64  `json:"priceChange24h"`
	Volume24h      float64  `json:"volume24h"`
	QuoteVolume24h float64  `json:"quoteVolume24h"`
	Volatility24h  float64  `json:"volatility24h"`
	MarketShare    float64  `json:"marketShare"`
	FundingRate    *float64 `json:"fundingRate,omitempty"`
}

// MarketPoint is everything the simulator knows about one period
type MarketPoint struct {
	Timestamp               time.Time        `json:"timestamp"`
	ReferenceAssetPrice     float64          `json:"referenceAssetPrice"`
	ReferenceAsset24hChange float64          `json:"referenceAsset24hChange"`
	Ranking                 []CandidateQuote `json:"ranking"`
}

// Validate checks a single point. period is 1-indexed and is only used
// to label the error.
func (m MarketPoint) Validate(period int, shortAlt bool) error {
	invalid := func(field, format string, args ...any) error {
		return &ValidationError{
			Period:    period,
			Timestamp: m.Timestamp,
			Field:     field,
			Message:   fmt.Sprintf(format, args...),
		}
	}

	if m.Timestamp.IsZero() {
		return invalid("timestamp", "missing timestamp")
	}
	if !finite(m.ReferenceAssetPrice) || m.ReferenceAssetPrice < 0 {
		return invalid("referenceAssetPrice", "invalid price %f", m.ReferenceAssetPrice)
	}
	if !finite(m.ReferenceAsset24hChange) {
		return invalid("referenceAsset24hChange", "non-finite change")
	}
	if shortAlt && len(m.Ranking) == 0 {
		return invalid("ranking", "empty ranking with short leg enabled")
	}

	seen := map[string]bool{}
	for i, c := range m.Ranking {
		field := fmt.Sprintf("ranking[%d]", i)
		if c.Symbol == "" {
			return invalid(field+".symbol", "missing symbol")
		}
		if seen[c.Symbol] {
			return invalid(field+".symbol", "duplicate symbol %s", c.Symbol)
		}
		seen[c.Symbol] = true
		if c.Rank < 1 {
			return invalid(field+".rank", "rank must be >= 1 for %s, got %d", c.Symbol, c.Rank)
		}
		values := map[string]float64{
			"price":          c.Price,
			"priceChange24h": c.PriceChange24h,
			"volume24h":      c.Volume24h,
			"quoteVolume24h": c.QuoteVolume24h,
			"volatility24h":  c.Volatility24h,
			"marketShare":    c.MarketShare,
		}
		for name, v := range values {
			if !finite(v) {
				return invalid(field+"."+name, "non-finite value for %s", c.Symbol)
			}
		}
		if c.Price < 0 {
			return invalid(field+".price", "negative price %f for %s", c.Price, c.Symbol)
		}
		if c.Volume24h < 0 || c.QuoteVolume24h < 0 || c.Volatility24h < 0 || c.MarketShare < 0 {
			return invalid(field, "negative volume, volatility or market share for %s", c.Symbol)
		}
		if c.FundingRate != nil && !finite(*c.FundingRate) {
			return invalid(field+".fundingRate", "non-finite funding rate for %s", c.Symbol)
		}
	}

	return nil
}

func (m MarketPoint) Quote(symbol string) (CandidateQuote, bool) {
	for _, c := range m.Ranking {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return CandidateQuote{}, false
}
