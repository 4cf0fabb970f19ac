package domain

type ShortCandidateScore struct {
	Symbol           string  `json:"symbol"`
	Rank             int     `json:"rank"`
	VolumeScore      float64 `json:"volumeScore"`
	PriceChangeScore float64 `json:"priceChangeScore"`
	VolatilityScore  float64 `json:"volatilityScore"`
	FundingRateScore float64 `json:"fundingRateScore"`
	TotalScore       float64 `json:"totalScore"`
	Eligible         bool    `json:"eligible"`
	Selected         bool    `json:"selected"`
	Reason           string  `json:"reason"`
}

type ShortSelectionResult struct {
	// desc by TotalScore
	Selected []ShortCandidateScore
	Rejected []ShortCandidateScore
	Reason   string
}

// All is selected followed by rejected, which is how the candidates get
// recorded on a snapshot
func (r ShortSelectionResult) All() []ShortCandidateScore {
	out := make([]ShortCandidateScore, 0, len(r.Selected)+len(r.Rejected))
	out = append(out, r.Selected...)
	out = append(out, r.Rejected...)
	return out
}
