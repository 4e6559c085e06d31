package analytics

import (
	"sort"
	"strconv"

	"github.com/franz/chinook-insights/internal/model"
	"github.com/shopspring/decimal"
)

// RankedRevenue is one group in a revenue ranking
type RankedRevenue struct {
	Key     string // grouping key: country name or entity id
	Label   string // display name
	Revenue decimal.Decimal
	Units   int64 // quantity sold
}

type groupKey struct {
	key   string
	label string
	id    int64
}

// rankBy groups sales by key, sums revenue, sorts by revenue descending with
// ties broken by label then id, and keeps the first n groups (all when n <= 0).
func (a *Analyzer) rankBy(op string, n int, keyOf func(*model.SalesLineItem) groupKey) []RankedRevenue {
	if a.emptySales(op) {
		return []RankedRevenue{}
	}

	type acc struct {
		groupKey
		revenue decimal.Decimal
		units   int64
	}
	groups := make(map[string]*acc)
	for i := range a.sales {
		item := &a.sales[i]
		k := keyOf(item)
		g, ok := groups[k.key]
		if !ok {
			g = &acc{groupKey: k, revenue: decimal.Zero}
			groups[k.key] = g
		}
		g.revenue = g.revenue.Add(item.Revenue)
		g.units += item.Quantity
	}

	sorted := make([]*acc, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if c := sorted[i].revenue.Cmp(sorted[j].revenue); c != 0 {
			return c > 0
		}
		if sorted[i].label != sorted[j].label {
			return sorted[i].label < sorted[j].label
		}
		return sorted[i].id < sorted[j].id
	})

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]RankedRevenue, len(sorted))
	for i, g := range sorted {
		out[i] = RankedRevenue{Key: g.key, Label: g.label, Revenue: g.revenue, Units: g.units}
	}
	return out
}

func idKey(id int64, label string) groupKey {
	return groupKey{key: strconv.FormatInt(id, 10), label: label, id: id}
}

// TopCountriesByRevenue ranks customer countries by revenue
func (a *Analyzer) TopCountriesByRevenue(n int) []RankedRevenue {
	return a.rankBy("top countries", n, func(s *model.SalesLineItem) groupKey {
		return groupKey{key: s.Country, label: s.Country}
	})
}

// TopArtistsByRevenue ranks artists by revenue
func (a *Analyzer) TopArtistsByRevenue(n int) []RankedRevenue {
	return a.rankBy("top artists", n, func(s *model.SalesLineItem) groupKey {
		return idKey(s.ArtistID, s.ArtistName)
	})
}

// TopGenresByRevenue ranks genres by revenue
func (a *Analyzer) TopGenresByRevenue(n int) []RankedRevenue {
	return a.rankBy("top genres", n, func(s *model.SalesLineItem) groupKey {
		return idKey(s.GenreID, s.GenreName)
	})
}

// TopTracksByRevenue ranks tracks by revenue
func (a *Analyzer) TopTracksByRevenue(n int) []RankedRevenue {
	return a.rankBy("top tracks", n, func(s *model.SalesLineItem) groupKey {
		return idKey(s.TrackID, s.TrackName)
	})
}
