// Package dataset holds column-typed tables as produced by a loader and
// consumed by the model. Tables are immutable once built.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the type of every non-null cell in a column
type Kind int

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Column describes one named, typed column
type Column struct {
	Name string
	Kind Kind
}

// Table is a named, column-typed dataset. Cells are int64, float64, string,
// time.Time or nil (null), matching the column kind.
type Table struct {
	name    string
	columns []Column
	rows    [][]any
	index   map[string]int
}

// Tables maps a lower-case table name to its table
type Tables map[string]*Table

// NewTable builds a table and checks every cell against its column kind.
// The table takes ownership of rows; callers must not modify them afterwards.
func NewTable(name string, columns []Column, rows [][]any) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c.Name]; dup {
			return nil, &SchemaError{Table: name, Column: c.Name, Reason: "duplicate column"}
		}
		index[c.Name] = i
	}

	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, &SchemaError{Table: name, Reason: fmt.Sprintf("row %d has %d cells, expected %d", r, len(row), len(columns))}
		}
		for c, v := range row {
			if !cellMatches(columns[c].Kind, v) {
				reason := fmt.Sprintf("row %d holds %T, expected %s", r, v, columns[c].Kind)
				if f, ok := v.(float64); ok {
					reason = fmt.Sprintf("row %d holds non-finite %v", r, f)
				}
				return nil, &SchemaError{Table: name, Column: columns[c].Name, Reason: reason}
			}
		}
	}

	return &Table{name: name, columns: columns, rows: rows, index: index}, nil
}

// MustTable is NewTable for fixtures; it panics on a malformed table
func MustTable(name string, columns []Column, rows [][]any) *Table {
	t, err := NewTable(name, columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func cellMatches(k Kind, v any) bool {
	if v == nil {
		return true
	}
	switch k {
	case KindInt:
		_, ok := v.(int64)
		return ok
	case KindFloat:
		f, ok := v.(float64)
		return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
	case KindString:
		_, ok := v.(string)
		return ok
	case KindTime:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}

// Name returns the table name
func (t *Table) Name() string { return t.name }

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the column list
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name
func (t *Table) Column(name string) (Column, int, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, -1, false
	}
	return t.columns[i], i, true
}

// Value returns the raw cell, nil when null
func (t *Table) Value(row, col int) any {
	return t.rows[row][col]
}

// Int returns an integer cell; ok is false when the cell is null
func (t *Table) Int(row, col int) (int64, bool) {
	v, ok := t.rows[row][col].(int64)
	return v, ok
}

// Float returns a numeric cell, widening integers
func (t *Table) Float(row, col int) (float64, bool) {
	switch v := t.rows[row][col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Decimal returns a numeric cell as an exact decimal. Floats use their
// shortest representation, so 0.99 stays 0.99.
func (t *Table) Decimal(row, col int) (decimal.Decimal, bool) {
	switch v := t.rows[row][col].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Zero, false
}

// String returns a string cell; ok is false when the cell is null
func (t *Table) String(row, col int) (string, bool) {
	v, ok := t.rows[row][col].(string)
	return v, ok
}

// Time returns a time cell; ok is false when the cell is null
func (t *Table) Time(row, col int) (time.Time, bool) {
	v, ok := t.rows[row][col].(time.Time)
	return v, ok
}

// Get returns the named table or a SchemaError when it is absent
func (ts Tables) Get(name string) (*Table, error) {
	t, ok := ts[name]
	if !ok || t == nil {
		return nil, &SchemaError{Table: name, Reason: "table missing"}
	}
	return t, nil
}

// Names returns table names in sorted order
func (ts Tables) Names() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeName maps a file or SQL table name to the lower-case key used in Tables
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
