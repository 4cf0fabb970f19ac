package domain

import (
	"sort"
	"time"
)

type PositionSide string

const (
	PositionSide_Long  PositionSide = "LONG"
	PositionSide_Short PositionSide = "SHORT"
)

type PositionInfo struct {
	Symbol                string       `json:"symbol"`
	Side                  PositionSide `json:"side"`
	Quantity              float64      `json:"quantity"`
	EntryPrice            float64      `json:"entryPrice"`
	CurrentPrice          float64      `json:"currentPrice"`
	NotionalAtCost        float64      `json:"notionalAtCost"`
	UnrealizedPnl         float64      `json:"unrealizedPnl"`
	CumulativeRealizedPnl float64      `json:"cumulativeRealizedPnl"`
	PeriodTradingFee      float64      `json:"periodTradingFee"`
	PeriodFundingFee      float64      `json:"periodFundingFee"`
	IsNewPosition         bool         `json:"isNewPosition"`
	IsClosed              bool         `json:"isClosed"`
}

// MarketValue is the capital deployed in the position at the current
// price, for either side. whatever isn't deployed is cash
func (p PositionInfo) MarketValue() float64 {
	if p.IsClosed {
		return 0
	}
	return p.Quantity * p.CurrentPrice
}

type StrategySnapshot struct {
	Period               int                   `json:"period"`
	Timestamp            time.Time             `json:"timestamp"`
	ReferencePosition    *PositionInfo         `json:"referencePosition"`
	ShortPositions       []PositionInfo        `json:"shortPositions"`
	ClosedPositions      []PositionInfo        `json:"closedPositions"`
	CashBalance          float64               `json:"cashBalance"`
	TotalValue           float64               `json:"totalValue"`
	PeriodPnl            float64               `json:"periodPnl"`
	PeriodPnlPercent     float64               `json:"periodPnlPercent"`
	CumulativePnl        float64               `json:"cumulativePnl"`
	CumulativePnlPercent float64               `json:"cumulativePnlPercent"`
	PeriodTradingFee     float64               `json:"periodTradingFee"`
	CumulativeTradingFee float64               `json:"cumulativeTradingFee"`
	PeriodFundingFee     float64               `json:"periodFundingFee"`
	CumulativeFundingFee float64               `json:"cumulativeFundingFee"`
	IsActive             bool                  `json:"isActive"`
	RebalanceReason      string                `json:"rebalanceReason"`
	CandidateScores      []ShortCandidateScore `json:"candidateScores"`
}

// OpenPositions returns the reference position (if any) followed by
// shorts in symbol order
func (s StrategySnapshot) OpenPositions() []PositionInfo {
	out := []PositionInfo{}
	if s.ReferencePosition != nil && !s.ReferencePosition.IsClosed {
		out = append(out, *s.ReferencePosition)
	}
	out = append(out, s.ShortPositions...)
	return out
}

func (s StrategySnapshot) MarketValue() float64 {
	total := 0.0
	for _, p := range s.OpenPositions() {
		total += p.MarketValue()
	}
	return total
}

// InitialCapital recovers the starting capital of the run the snapshot
// belongs to
func (s StrategySnapshot) InitialCapital() float64 {
	return s.TotalValue - s.CumulativePnl
}

func (s StrategySnapshot) ShortPosition(symbol string) (PositionInfo, bool) {
	for _, p := range s.ShortPositions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return PositionInfo{}, false
}

// HeldSymbols is every short symbol open at the end of the period
func (s StrategySnapshot) HeldSymbols() []string {
	symbols := []string{}
	for _, p := range s.ShortPositions {
		symbols = append(symbols, p.Symbol)
	}
	sort.Strings(symbols)
	return symbols
}
