// Package analytics computes descriptive business metrics over the sales fact
// table and the track catalog: revenue trends, rankings, customer lifetime
// value, RFM segmentation, and catalog statistics.
//
// Every operation is a pure function of the Analyzer's inputs. Inputs are
// shared by reference and never modified.
package analytics

import (
	"errors"

	"github.com/franz/chinook-insights/internal/model"
	"github.com/franz/chinook-insights/internal/util"
)

// ErrNoCatalog is returned by catalog operations on an Analyzer built without one
var ErrNoCatalog = errors.New("catalog is required for this analysis")

// Analyzer derives metrics from sales line items and, optionally, the catalog
type Analyzer struct {
	sales   []model.SalesLineItem
	catalog []model.CatalogEntry
}

// New creates an Analyzer. catalog may be nil when only sales metrics are needed.
func New(sales []model.SalesLineItem, catalog []model.CatalogEntry) *Analyzer {
	return &Analyzer{sales: sales, catalog: catalog}
}

// SalesCount returns the number of sales rows under analysis
func (a *Analyzer) SalesCount() int {
	return len(a.sales)
}

// HasCatalog reports whether catalog operations are available
func (a *Analyzer) HasCatalog() bool {
	return a.catalog != nil
}

// emptySales logs the non-fatal empty-input condition and reports it
func (a *Analyzer) emptySales(op string) bool {
	if len(a.sales) > 0 {
		return false
	}
	util.WarnLog("EmptyInputWarning: %s computed over zero sales rows", op)
	return true
}
