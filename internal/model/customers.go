package model

import (
	"github.com/franz/chinook-insights/internal/dataset"
)

// CustomerDim is a customer with their support representative
type CustomerDim struct {
	Customer
	RepFirstName string
	RepLastName  string
	RepTitle     string
}

// Roster returns the plain customer records, e.g. for zero-filled CLV
func Roster(dims []CustomerDim) []Customer {
	out := make([]Customer, len(dims))
	for i, d := range dims {
		out[i] = d.Customer
	}
	return out
}

// CustomersDim builds the customer dimension: Customer left-joined to
// Employee on SupportRepId. Customers without a resolvable rep are kept with
// empty rep fields and counted in JoinStats.Unmatched.
func (m *Model) CustomersDim() ([]CustomerDim, JoinStats, error) {
	bindings, err := dataset.BindAll(m.tables, dataset.CustomerSpec, dataset.EmployeeSpec)
	if err != nil {
		return nil, JoinStats{}, err
	}
	customerB, employeeB := bindings[0], bindings[1]

	employees, err := buildIndex(employeeB, "EmployeeId", decodeEmployee)
	if err != nil {
		return nil, JoinStats{}, err
	}

	stats := newStats(customerB.Len())
	dims := make([]CustomerDim, 0, customerB.Len())
	seen := make(map[int64]bool, customerB.Len())

	for row := 0; row < customerB.Len(); row++ {
		c := decodeCustomer(customerB, row)
		if seen[c.ID] {
			return nil, stats, &dataset.IntegrityError{
				Table:  dataset.TableCustomer,
				Column: "CustomerId",
				Key:    c.ID,
				Parent: dataset.TableCustomer,
				Reason: "duplicate primary key",
			}
		}
		seen[c.ID] = true

		dim := CustomerDim{Customer: c}
		rep := readRef(customerB, row, "SupportRepId")
		if e, ok := lookupLeft(&stats, employees, rep, dataset.TableEmployee); ok {
			dim.RepFirstName = e.firstName
			dim.RepLastName = e.lastName
			dim.RepTitle = e.title
		}
		dims = append(dims, dim)
	}

	stats.Output = len(dims)
	return dims, stats, nil
}
