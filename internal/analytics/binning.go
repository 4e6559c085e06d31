package analytics

import (
	"math"
	"sort"
)

// QuantileBins assigns each value a 1-based bin label by quantile rank.
//
// Edges are the linearly interpolated quantiles at i/bins for i in 0..bins.
// Duplicate edges are collapsed, so heavily tied data yields fewer than bins
// distinct labels. Each value lands in the smallest bin j whose upper edge is
// >= the value; the first bin is closed on the left. When fewer than two
// distinct edges remain every value is labeled 1.
func QuantileBins(values []float64, bins int) []int {
	labels := make([]int, len(values))
	if len(values) == 0 {
		return labels
	}
	if bins < 1 {
		bins = 1
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	edges := make([]float64, 0, bins+1)
	for i := 0; i <= bins; i++ {
		e := quantile(sorted, float64(i)/float64(bins))
		if len(edges) == 0 || e != edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}

	for i, v := range values {
		if len(edges) < 2 {
			labels[i] = 1
			continue
		}
		// first upper edge >= v
		j := sort.SearchFloat64s(edges[1:], v)
		if j >= len(edges)-1 {
			j = len(edges) - 2
		}
		labels[i] = j + 1
	}
	return labels
}

// quantile returns the q-th quantile of sorted data by linear interpolation
// between the closest ranks.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// binCount returns the number of distinct labels in a binning
func binCount(labels []int) int {
	top := 0
	for _, l := range labels {
		if l > top {
			top = l
		}
	}
	return top
}
