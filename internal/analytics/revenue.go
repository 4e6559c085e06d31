package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyRevenue is the revenue of one calendar month
type MonthlyRevenue struct {
	Month   time.Time // first day of the month, UTC
	Revenue decimal.Decimal
}

// Label formats the month as 2006-01
func (m MonthlyRevenue) Label() string {
	return m.Month.Format("2006-01")
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// RevenueByMonth sums revenue per (year, month) of the invoice date, in
// chronological order. Months without sales are absent.
func (a *Analyzer) RevenueByMonth() []MonthlyRevenue {
	if a.emptySales("revenue by month") {
		return []MonthlyRevenue{}
	}

	totals := make(map[time.Time]decimal.Decimal)
	for i := range a.sales {
		m := monthStart(a.sales[i].InvoiceDate)
		totals[m] = totals[m].Add(a.sales[i].Revenue)
	}

	out := make([]MonthlyRevenue, 0, len(totals))
	for m, rev := range totals {
		out = append(out, MonthlyRevenue{Month: m, Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

// RevenueByMonthFilled is RevenueByMonth with every month between the first
// and last sale present, gaps carrying zero revenue.
func (a *Analyzer) RevenueByMonthFilled() []MonthlyRevenue {
	sparse := a.RevenueByMonth()
	if len(sparse) == 0 {
		return sparse
	}

	filled := make([]MonthlyRevenue, 0, len(sparse))
	next := 0
	last := sparse[len(sparse)-1].Month
	for m := sparse[0].Month; !m.After(last); m = m.AddDate(0, 1, 0) {
		if next < len(sparse) && sparse[next].Month.Equal(m) {
			filled = append(filled, sparse[next])
			next++
			continue
		}
		filled = append(filled, MonthlyRevenue{Month: m, Revenue: decimal.Zero})
	}
	return filled
}

// TotalRevenue sums revenue over all sales rows
func (a *Analyzer) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for i := range a.sales {
		total = total.Add(a.sales[i].Revenue)
	}
	return total
}
