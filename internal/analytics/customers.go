package analytics

import (
	"sort"

	"github.com/franz/chinook-insights/internal/model"
	"github.com/shopspring/decimal"
)

// CustomerValue is the lifetime revenue of one customer
type CustomerValue struct {
	CustomerID int64
	FirstName  string
	LastName   string
	Country    string
	Revenue    decimal.Decimal
	Invoices   int // distinct invoices
}

// CustomerLifetimeValue sums revenue per purchasing customer, sorted by
// revenue descending then customer id.
func (a *Analyzer) CustomerLifetimeValue() []CustomerValue {
	if a.emptySales("customer lifetime value") {
		return []CustomerValue{}
	}
	return sortValues(a.customerValues())
}

// CustomerLifetimeValueWithRoster adds customers from roster that never
// purchased, with zero revenue.
func (a *Analyzer) CustomerLifetimeValueWithRoster(roster []model.Customer) []CustomerValue {
	values := a.customerValues()
	for _, c := range roster {
		if _, ok := values[c.ID]; ok {
			continue
		}
		values[c.ID] = &CustomerValue{
			CustomerID: c.ID,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Country:    c.Country,
			Revenue:    decimal.Zero,
		}
	}
	return sortValues(values)
}

// TopCustomers returns the n customers with the highest lifetime value
func (a *Analyzer) TopCustomers(n int) []CustomerValue {
	values := a.CustomerLifetimeValue()
	if n > 0 && len(values) > n {
		values = values[:n]
	}
	return values
}

func (a *Analyzer) customerValues() map[int64]*CustomerValue {
	values := make(map[int64]*CustomerValue)
	invoices := make(map[int64]map[int64]bool)
	for i := range a.sales {
		s := &a.sales[i]
		v, ok := values[s.CustomerID]
		if !ok {
			v = &CustomerValue{
				CustomerID: s.CustomerID,
				FirstName:  s.FirstName,
				LastName:   s.LastName,
				Country:    s.Country,
				Revenue:    decimal.Zero,
			}
			values[s.CustomerID] = v
			invoices[s.CustomerID] = make(map[int64]bool)
		}
		v.Revenue = v.Revenue.Add(s.Revenue)
		invoices[s.CustomerID][s.InvoiceID] = true
	}
	for id, v := range values {
		v.Invoices = len(invoices[id])
	}
	return values
}

func sortValues(values map[int64]*CustomerValue) []CustomerValue {
	out := make([]CustomerValue, 0, len(values))
	for _, v := range values {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}
