package analytics

import (
	"math"
	"sort"
)

// DurationSummary describes the distribution of track lengths in minutes
type DurationSummary struct {
	Count  int
	Mean   float64
	Std    float64 // sample standard deviation, 0 for fewer than two tracks
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// DurationStats summarizes catalog track durations
func (a *Analyzer) DurationStats() (DurationSummary, error) {
	if a.catalog == nil {
		return DurationSummary{}, ErrNoCatalog
	}
	if len(a.catalog) == 0 {
		return DurationSummary{}, nil
	}

	mins := make([]float64, len(a.catalog))
	sum := 0.0
	for i := range a.catalog {
		mins[i] = a.catalog[i].DurationMinutes
		sum += mins[i]
	}
	sort.Float64s(mins)

	n := len(mins)
	mean := sum / float64(n)
	std := 0.0
	if n > 1 {
		ss := 0.0
		for _, m := range mins {
			ss += (m - mean) * (m - mean)
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return DurationSummary{
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    mins[0],
		P25:    quantile(mins, 0.25),
		Median: quantile(mins, 0.5),
		P75:    quantile(mins, 0.75),
		Max:    mins[n-1],
	}, nil
}
