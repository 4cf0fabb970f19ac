package calculator

import (
	"fmt"
	"hedgebacktest/internal/domain"
	"math"

	"github.com/shopspring/decimal"
)

// QuantityEpsilon absorbs the noise from dividing a notional by a price.
// smaller changes than this are not traded
const QuantityEpsilon = 1e-4

var quantityEpsilon = decimal.NewFromFloat(QuantityEpsilon)

// TradingFee is charged on every fill regardless of direction
func TradingFee(notionalTraded, tradingFeeRate float64) float64 {
	return math.Abs(notionalTraded) * tradingFeeRate
}

// FundingFee is the signed funding payment for holding a position through
// the period. positionNotional is measured at the start of the period. a
// positive rate means longs pay shorts, so the result is positive (a gain)
// for shorts and negative for longs
func FundingFee(side domain.PositionSide, positionNotional, fundingRate float64) float64 {
	fee := math.Abs(positionNotional) * fundingRate
	if side == domain.PositionSide_Long {
		return -fee
	}
	return fee
}

type AdjustPositionInput struct {
	Previous       *domain.PositionInfo
	Symbol         string
	Side           domain.PositionSide
	TargetQuantity float64
	CurrentPrice   float64
	TradingFeeRate float64
}

type AdjustPositionResult struct {
	Position domain.PositionInfo
	// signed, positive means the position grew
	TradedQuantity float64
	RealizedPnl    float64
	UnrealizedPnl  float64
	TradingFee     float64
	// change in realized + unrealized pnl relative to the previous
	// position, i.e. what this position earned over the period
	PnlDelta float64
}

// direction turns a price move into pnl for the side
func direction(side domain.PositionSide, move decimal.Decimal) decimal.Decimal {
	if side == domain.PositionSide_Short {
		return move.Neg()
	}
	return move
}

// AdjustPosition moves a position to TargetQuantity at CurrentPrice.
// entry price is a weighted average that only moves when quantity grows;
// shrinking realizes pnl on the sold portion at the old entry price. a
// target of exactly 0 always closes
func AdjustPosition(in AdjustPositionInput) (*AdjustPositionResult, error) {
	if math.IsNaN(in.TargetQuantity) || math.IsInf(in.TargetQuantity, 0) || in.TargetQuantity < 0 {
		return nil, fmt.Errorf("invalid target quantity %f for %s", in.TargetQuantity, in.Symbol)
	}
	if math.IsNaN(in.CurrentPrice) || math.IsInf(in.CurrentPrice, 0) || in.CurrentPrice < 0 {
		return nil, fmt.Errorf("invalid price %f for %s", in.CurrentPrice, in.Symbol)
	}
	if in.Side != domain.PositionSide_Long && in.Side != domain.PositionSide_Short {
		return nil, fmt.Errorf("unknown position side '%s'", in.Side)
	}

	prev := in.Previous
	if prev != nil && prev.IsClosed {
		prev = nil
	}
	if prev != nil && prev.Side != in.Side {
		return nil, fmt.Errorf("cannot adjust %s position in %s as %s", prev.Side, in.Symbol, in.Side)
	}

	price := decimal.NewFromFloat(in.CurrentPrice)
	prevQuantity := decimal.Zero
	entryPrice := decimal.Zero
	prevUnrealized := 0.0
	prevRealized := 0.0
	if prev != nil {
		prevQuantity = decimal.NewFromFloat(prev.Quantity)
		entryPrice = decimal.NewFromFloat(prev.EntryPrice)
		prevUnrealized = prev.UnrealizedPnl
		prevRealized = prev.CumulativeRealizedPnl
	}

	target := decimal.NewFromFloat(in.TargetQuantity)
	delta := target.Sub(prevQuantity)
	closing := target.IsZero() && prevQuantity.IsPositive()
	if !closing && delta.Abs().LessThan(quantityEpsilon) {
		target = prevQuantity
		delta = decimal.Zero
	}

	if delta.IsPositive() && !price.IsPositive() {
		return nil, fmt.Errorf("cannot add to %s at price %s", in.Symbol, price.String())
	}

	newEntryPrice := entryPrice
	realized := decimal.Zero
	if delta.IsPositive() {
		// (q*e + dq*p) / (q + dq)
		newEntryPrice = prevQuantity.Mul(entryPrice).Add(delta.Mul(price)).Div(target)
	} else if delta.IsNegative() {
		realized = delta.Neg().Mul(direction(in.Side, price.Sub(entryPrice)))
	}
	unrealized := target.Mul(direction(in.Side, price.Sub(newEntryPrice)))
	fee := TradingFee(delta.Abs().Mul(price).InexactFloat64(), in.TradingFeeRate)

	position := domain.PositionInfo{
		Symbol:                in.Symbol,
		Side:                  in.Side,
		Quantity:              target.InexactFloat64(),
		EntryPrice:            newEntryPrice.InexactFloat64(),
		CurrentPrice:          in.CurrentPrice,
		NotionalAtCost:        target.Mul(newEntryPrice).InexactFloat64(),
		UnrealizedPnl:         unrealized.InexactFloat64(),
		CumulativeRealizedPnl: prevRealized + realized.InexactFloat64(),
		PeriodTradingFee:      fee,
		IsNewPosition:         prev == nil && target.IsPositive(),
		IsClosed:              prev != nil && target.IsZero(),
	}

	return &AdjustPositionResult{
		Position:       position,
		TradedQuantity: delta.InexactFloat64(),
		RealizedPnl:    realized.InexactFloat64(),
		UnrealizedPnl:  position.UnrealizedPnl,
		TradingFee:     fee,
		PnlDelta:       realized.InexactFloat64() + position.UnrealizedPnl - prevUnrealized,
	}, nil
}

// TargetQuantity converts a dollar target into units at price
func TargetQuantity(notional, price float64) (float64, error) {
	if notional == 0 {
		return 0, nil
	}
	if notional < 0 {
		return 0, fmt.Errorf("negative target notional %f", notional)
	}
	if price <= 0 {
		return 0, fmt.Errorf("cannot size %f notional at price %f", notional, price)
	}
	return decimal.NewFromFloat(notional).Div(decimal.NewFromFloat(price)).InexactFloat64(), nil
}
