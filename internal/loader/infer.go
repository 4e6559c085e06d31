package loader

import (
	"math"
	"strconv"
	"strings"

	"github.com/franz/chinook-insights/internal/dataset"
)

// IsDateColumn reports whether a header names a date column
func IsDateColumn(header string) bool {
	return strings.Contains(strings.ToLower(header), "date")
}

// inferColumn picks the narrowest kind that holds every non-empty cell.
// NaN and infinities are not numbers here, so such a column stays text.
// Date columns are parsed leniently: an unparseable cell becomes null.
// Empty cells are always null.
func inferColumn(header string, cells []string) (dataset.Kind, []any) {
	values := make([]any, len(cells))

	if IsDateColumn(header) {
		for i, c := range cells {
			if t, ok := dataset.ParseTime(c); ok {
				values[i] = t
			}
		}
		return dataset.KindTime, values
	}

	if fillInts(cells, values) {
		return dataset.KindInt, values
	}
	if fillFloats(cells, values) {
		return dataset.KindFloat, values
	}

	for i, c := range cells {
		if c != "" {
			values[i] = c
		} else {
			values[i] = nil
		}
	}
	return dataset.KindString, values
}

func fillInts(cells []string, values []any) bool {
	seen := false
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			values[i] = nil
			continue
		}
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			return false
		}
		values[i] = n
		seen = true
	}
	return seen
}

func fillFloats(cells []string, values []any) bool {
	seen := false
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			values[i] = nil
			continue
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		values[i] = f
		seen = true
	}
	return seen
}
