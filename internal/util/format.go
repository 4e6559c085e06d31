package util

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with thousands separators and two decimals: 1,234.50
func FormatMoney(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatBytes renders a byte size in IEC units
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
