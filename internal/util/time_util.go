package util

import (
	"time"
)

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func FloatPointer(f float64) *float64 {
	return &f
}

// GranularityFromString maps the api's named sampling units onto hours
func GranularityFromString(s string) (float64, bool) {
	m := map[string]float64{
		"1h":      1,
		"4h":      4,
		"8h":      8,
		"daily":   24,
		"1d":      24,
		"weekly":  24 * 7,
		"monthly": 24 * 30,
	}
	h, ok := m[s]
	return h, ok
}
