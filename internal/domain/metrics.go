package domain

// PerformanceMetrics summarizes a full run. returns are fractions,
// not percents
type PerformanceMetrics struct {
	PeriodCount            int     `json:"periodCount"`
	TotalReturn            float64 `json:"totalReturn"`
	AnnualizedReturn       float64 `json:"annualizedReturn"`
	Volatility             float64 `json:"volatility"`
	SharpeRatio            float64 `json:"sharpeRatio"`
	MaxDrawdown            float64 `json:"maxDrawdown"`
	MaxDrawdownStartPeriod int     `json:"maxDrawdownStartPeriod"`
	MaxDrawdownEndPeriod   int     `json:"maxDrawdownEndPeriod"`
	WinRate                float64 `json:"winRate"`
	AvgReturn              float64 `json:"avgReturn"`
	BestPeriod             float64 `json:"bestPeriod"`
	WorstPeriod            float64 `json:"worstPeriod"`
	CalmarRatio            float64 `json:"calmarRatio"`
}
