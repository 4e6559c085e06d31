package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/franz/chinook-insights/internal/util"
	"github.com/shopspring/decimal"
)

// table writes aligned columns. Text cells are cut to a third of the
// terminal width.
type table struct {
	tw    *tabwriter.Writer
	width int
}

func newTable(w io.Writer) *table {
	width := util.TerminalWidth() / 3
	if width < 24 {
		width = 24
	}
	return &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0), width: width}
}

func (t *table) row(cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case decimal.Decimal:
			parts[i] = util.FormatMoney(v)
		case string:
			parts[i] = util.Truncate(v, t.width)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}
