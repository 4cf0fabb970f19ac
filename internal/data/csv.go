package data

import (
	"fmt"
	"hedgebacktest/internal/domain"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type referenceRow struct {
	Timestamp string  `csv:"timestamp"`
	Price     float64 `csv:"price"`
	Change24h float64 `csv:"change_24h"`
}

type candidateRow struct {
	Timestamp      string  `csv:"timestamp"`
	Symbol         string  `csv:"symbol"`
	Rank           int     `csv:"rank"`
	Price          float64 `csv:"price"`
	PriceChange24h float64 `csv:"price_change_24h"`
	Volume24h      float64 `csv:"volume_24h"`
	QuoteVolume24h float64 `csv:"quote_volume_24h"`
	Volatility24h  float64 `csv:"volatility_24h"`
	MarketShare    float64 `csv:"market_share"`
	// blank when the venue has no perp for the symbol
	FundingRate string `csv:"funding_rate"`
}

// parseTimestamp accepts RFC3339, a bare date or unix millis
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp '%s'", s)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// LoadMarketPointsCsv joins reference prices with candidate quotes on
// timestamp. every reference row becomes one point; candidate rows for a
// timestamp with no reference row are an error
func LoadMarketPointsCsv(referenceCsv, candidatesCsv io.Reader) ([]domain.MarketPoint, error) {
	referenceRows := []referenceRow{}
	if err := gocsv.Unmarshal(referenceCsv, &referenceRows); err != nil {
		return nil, fmt.Errorf("failed to parse reference csv: %w", err)
	}
	candidateRows := []candidateRow{}
	if err := gocsv.Unmarshal(candidatesCsv, &candidateRows); err != nil {
		return nil, fmt.Errorf("failed to parse candidates csv: %w", err)
	}

	pointsByTime := map[time.Time]*domain.MarketPoint{}
	for i, row := range referenceRows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("reference row %d: %w", i+1, err)
		}
		if _, ok := pointsByTime[ts]; ok {
			return nil, fmt.Errorf("reference row %d: duplicate timestamp %s", i+1, row.Timestamp)
		}
		pointsByTime[ts] = &domain.MarketPoint{
			Timestamp:               ts,
			ReferenceAssetPrice:     row.Price,
			ReferenceAsset24hChange: row.Change24h,
			Ranking:                 []domain.CandidateQuote{},
		}
	}

	for i, row := range candidateRows {
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("candidate row %d: %w", i+1, err)
		}
		point, ok := pointsByTime[ts]
		if !ok {
			return nil, fmt.Errorf("candidate row %d: no reference price at %s", i+1, row.Timestamp)
		}
		quote := domain.CandidateQuote{
			Symbol:         row.Symbol,
			Rank:           row.Rank,
			Price:          row.Price,
			PriceChange24h: row.PriceChange24h,
			Volume24h:      row.Volume24h,
			QuoteVolume24h: row.QuoteVolume24h,
			Volatility24h:  row.Volatility24h,
			MarketShare:    row.MarketShare,
		}
		if strings.TrimSpace(row.FundingRate) != "" {
			rate, err := strconv.ParseFloat(strings.TrimSpace(row.FundingRate), 64)
			if err != nil {
				return nil, fmt.Errorf("candidate row %d: invalid funding rate: %w", i+1, err)
			}
			quote.FundingRate = &rate
		}
		point.Ranking = append(point.Ranking, quote)
	}

	points := make([]domain.MarketPoint, 0, len(pointsByTime))
	for _, p := range pointsByTime {
		points = append(points, *p)
	}
	sortPoints(points)

	return points, nil
}

type snapshotRow struct {
	Period               int    `csv:"period"`
	Timestamp            string `csv:"timestamp"`
	IsActive             bool   `csv:"is_active"`
	TotalValue           string `csv:"total_value"`
	CashBalance          string `csv:"cash_balance"`
	PeriodPnl            string `csv:"period_pnl"`
	PeriodPnlPercent     string `csv:"period_pnl_percent"`
	CumulativePnl        string `csv:"cumulative_pnl"`
	CumulativePnlPercent string `csv:"cumulative_pnl_percent"`
	PeriodTradingFee     string `csv:"period_trading_fee"`
	CumulativeTradingFee string `csv:"cumulative_trading_fee"`
	PeriodFundingFee     string `csv:"period_funding_fee"`
	CumulativeFundingFee string `csv:"cumulative_funding_fee"`
	ReferenceQuantity    string `csv:"reference_quantity"`
	ShortSymbols         string `csv:"short_symbols"`
	ClosedSymbols        string `csv:"closed_symbols"`
	RebalanceReason      string `csv:"rebalance_reason"`
}

func round(f float64, places int32) string {
	return decimal.NewFromFloat(f).Round(places).String()
}

// WriteSnapshotsCsv writes one row per period. money is rounded to cents
// only for display, percents to 6 places
func WriteSnapshotsCsv(w io.Writer, snapshots []domain.StrategySnapshot) error {
	rows := make([]snapshotRow, 0, len(snapshots))
	for _, s := range snapshots {
		referenceQuantity := "0"
		if s.ReferencePosition != nil && !s.ReferencePosition.IsClosed {
			referenceQuantity = round(s.ReferencePosition.Quantity, 8)
		}
		closed := []string{}
		for _, p := range s.ClosedPositions {
			closed = append(closed, p.Symbol)
		}
		rows = append(rows, snapshotRow{
			Period:               s.Period,
			Timestamp:            s.Timestamp.UTC().Format(time.RFC3339),
			IsActive:             s.IsActive,
			TotalValue:           round(s.TotalValue, 2),
			CashBalance:          round(s.CashBalance, 2),
			PeriodPnl:            round(s.PeriodPnl, 2),
			PeriodPnlPercent:     round(s.PeriodPnlPercent, 6),
			CumulativePnl:        round(s.CumulativePnl, 2),
			CumulativePnlPercent: round(s.CumulativePnlPercent, 6),
			PeriodTradingFee:     round(s.PeriodTradingFee, 2),
			CumulativeTradingFee: round(s.CumulativeTradingFee, 2),
			PeriodFundingFee:     round(s.PeriodFundingFee, 2),
			CumulativeFundingFee: round(s.CumulativeFundingFee, 2),
			ReferenceQuantity:    referenceQuantity,
			ShortSymbols:         strings.Join(s.HeldSymbols(), ";"),
			ClosedSymbols:        strings.Join(closed, ";"),
			RebalanceReason:      s.RebalanceReason,
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write snapshots csv: %w", err)
	}
	return nil
}
