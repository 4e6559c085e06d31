package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RFMBins is the number of quantile bins per RFM axis
const RFMBins = 5

// RFMScore is the recency, frequency and monetary profile of one customer
type RFMScore struct {
	CustomerID   int64
	FirstName    string
	LastName     string
	Country      string
	LastPurchase time.Time
	Recency      int // days since last purchase
	Frequency    int // distinct invoices
	Monetary     decimal.Decimal
	R, F, M      int
	Score        int // R + F + M
	Segment      string
}

// RFMAnalysis scores every purchasing customer as of asOf. A zero asOf means
// the day after the latest invoice date. Scores are quantile bins of each
// axis with recency inverted so that the most recent buyers score highest.
// Segments come from rules, or DefaultSegmentRules when none are given.
//
// Results are sorted by Score descending, then Monetary descending, then
// customer id.
func (a *Analyzer) RFMAnalysis(asOf time.Time, rules ...SegmentRule) []RFMScore {
	if a.emptySales("RFM analysis") {
		return []RFMScore{}
	}
	if len(rules) == 0 {
		rules = DefaultSegmentRules()
	}

	type profile struct {
		score    RFMScore
		invoices map[int64]bool
	}
	profiles := make(map[int64]*profile)
	var latest time.Time
	for i := range a.sales {
		s := &a.sales[i]
		p, ok := profiles[s.CustomerID]
		if !ok {
			p = &profile{
				score: RFMScore{
					CustomerID: s.CustomerID,
					FirstName:  s.FirstName,
					LastName:   s.LastName,
					Country:    s.Country,
					Monetary:   decimal.Zero,
				},
				invoices: make(map[int64]bool),
			}
			profiles[s.CustomerID] = p
		}
		p.score.Monetary = p.score.Monetary.Add(s.Revenue)
		p.invoices[s.InvoiceID] = true
		if s.InvoiceDate.After(p.score.LastPurchase) {
			p.score.LastPurchase = s.InvoiceDate
		}
		if s.InvoiceDate.After(latest) {
			latest = s.InvoiceDate
		}
	}

	if asOf.IsZero() {
		asOf = civilDay(latest).AddDate(0, 0, 1)
	}
	reference := civilDay(asOf)

	out := make([]RFMScore, 0, len(profiles))
	for _, p := range profiles {
		p.score.Frequency = len(p.invoices)
		p.score.Recency = int(reference.Sub(civilDay(p.score.LastPurchase)).Hours() / 24)
		out = append(out, p.score)
	}
	// stable input order for binning
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })

	recency := make([]float64, len(out))
	frequency := make([]float64, len(out))
	monetary := make([]float64, len(out))
	for i := range out {
		recency[i] = float64(out[i].Recency)
		frequency[i] = float64(out[i].Frequency)
		monetary[i] = out[i].Monetary.InexactFloat64()
	}

	rBins := QuantileBins(recency, RFMBins)
	fBins := QuantileBins(frequency, RFMBins)
	mBins := QuantileBins(monetary, RFMBins)
	rTop := binCount(rBins)

	for i := range out {
		out[i].R = rTop + 1 - rBins[i]
		out[i].F = fBins[i]
		out[i].M = mBins[i]
		out[i].Score = out[i].R + out[i].F + out[i].M
		out[i].Segment = classify(rules, out[i].R, out[i].F, out[i].M)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if c := out[i].Monetary.Cmp(out[j].Monetary); c != 0 {
			return c > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}

// SegmentCounts tallies customers per segment
func SegmentCounts(scores []RFMScore) map[string]int {
	counts := make(map[string]int)
	for _, s := range scores {
		counts[s.Segment]++
	}
	return counts
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
