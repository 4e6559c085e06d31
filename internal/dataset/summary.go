package dataset

import (
	"fmt"
	"strings"
)

// TableSummary describes the shape of one loaded table
type TableSummary struct {
	Table   string
	Rows    int
	Columns int
	Missing int // null cells across all columns
}

// Issue is a data-quality finding that does not block analysis
type Issue struct {
	Table string
	Issue string
}

// Summarize returns one summary per table, ordered by table name
func Summarize(ts Tables) []TableSummary {
	out := make([]TableSummary, 0, len(ts))
	for _, name := range ts.Names() {
		t := ts[name]
		s := TableSummary{Table: name, Rows: t.Len(), Columns: len(t.columns)}
		for _, row := range t.rows {
			for _, v := range row {
				if v == nil {
					s.Missing++
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// Validate reports duplicate rows and columns that are entirely null.
// Tables without rows are skipped for the empty-column check.
func Validate(ts Tables) []Issue {
	var issues []Issue
	for _, name := range ts.Names() {
		t := ts[name]

		seen := make(map[string]bool, t.Len())
		dups := 0
		for _, row := range t.rows {
			key := rowKey(row)
			if seen[key] {
				dups++
				continue
			}
			seen[key] = true
		}
		if dups > 0 {
			issues = append(issues, Issue{Table: name, Issue: fmt.Sprintf("Contains %d duplicate rows", dups)})
		}

		if t.Len() == 0 {
			continue
		}
		var empty []string
		for c, col := range t.columns {
			allNull := true
			for _, row := range t.rows {
				if row[c] != nil {
					allNull = false
					break
				}
			}
			if allNull {
				empty = append(empty, col.Name)
			}
		}
		if len(empty) > 0 {
			issues = append(issues, Issue{Table: name, Issue: "Empty columns detected: " + strings.Join(empty, ", ")})
		}
	}
	return issues
}

func rowKey(row []any) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if v == nil {
			b.WriteString("\x00null")
			continue
		}
		fmt.Fprintf(&b, "%T:%v", v, v)
	}
	return b.String()
}
