// Package model joins the raw Chinook tables into analysis-ready datasets:
// a sales fact table, a track catalog, and a customer dimension.
//
// A Model captures its tables by reference and holds no other state, so every
// call recomputes from the same snapshot and returns freshly allocated rows.
package model

import (
	"fmt"
	"strings"

	"github.com/franz/chinook-insights/internal/dataset"
)

// Policy decides what happens to a row whose foreign key does not resolve
type Policy int

const (
	// PolicyDrop excludes the row and counts it in JoinStats.Dropped
	PolicyDrop Policy = iota
	// PolicyStrict fails with *dataset.IntegrityError on the first unresolved key
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "drop"
}

// ParsePolicy maps "drop" or "strict" to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return PolicyDrop, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicyDrop, fmt.Errorf("unknown integrity policy %q (want drop or strict)", s)
	}
}

// Option configures a Model
type Option func(*Model)

// WithPolicy sets the referential-integrity policy
func WithPolicy(p Policy) Option {
	return func(m *Model) {
		m.policy = p
	}
}

// Model builds derived datasets from raw tables
type Model struct {
	tables dataset.Tables
	policy Policy
}

// New creates a Model over tables. The tables must not be modified while
// the Model is in use.
func New(tables dataset.Tables, opts ...Option) *Model {
	m := &Model{tables: tables, policy: PolicyDrop}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the integrity policy in effect
func (m *Model) Policy() Policy {
	return m.policy
}

// JoinStats describes how many rows a join consumed and produced
type JoinStats struct {
	Input  int
	Output int
	// Dropped counts excluded rows by the parent table that failed to resolve.
	// A row is counted once, under the first relation that failed.
	Dropped map[string]int
	// Unmatched counts left-join misses; those rows are kept.
	Unmatched map[string]int
}

func newStats(input int) JoinStats {
	return JoinStats{
		Input:     input,
		Dropped:   make(map[string]int),
		Unmatched: make(map[string]int),
	}
}

// DroppedTotal returns the number of rows excluded by the join
func (s JoinStats) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// joiner resolves foreign keys according to the policy, recording drops
type joiner struct {
	policy Policy
	stats  *JoinStats
}

// resolve looks up a foreign key in a parent index. ok is false when the row
// must be dropped; err is set only under PolicyStrict.
func resolve[T any](j *joiner, parent map[int64]T, r ref, child, column, parentTable string) (T, bool, error) {
	if r.Valid {
		if v, ok := parent[r.ID]; ok {
			return v, true, nil
		}
	}

	var zero T
	if j.policy == PolicyStrict {
		var key any
		if r.Valid {
			key = r.ID
		}
		return zero, false, &dataset.IntegrityError{Table: child, Column: column, Key: key, Parent: parentTable}
	}
	j.stats.Dropped[parentTable]++
	return zero, false, nil
}

// lookupLeft resolves an optional relation; misses are counted, never fatal
func lookupLeft[T any](stats *JoinStats, parent map[int64]T, r ref, parentTable string) (T, bool) {
	if r.Valid {
		if v, ok := parent[r.ID]; ok {
			return v, true
		}
	}
	stats.Unmatched[parentTable]++
	var zero T
	return zero, false
}
