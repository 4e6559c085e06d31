package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema is wrapped by every SchemaError
	ErrSchema = errors.New("schema error")

	// ErrIntegrity is wrapped by every IntegrityError
	ErrIntegrity = errors.New("integrity error")
)

// SchemaError reports a missing table, a missing column, or a column whose
// kind or content cannot serve the requested operation.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema error: table %q: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("schema error: table %q column %q: %s", e.Table, e.Column, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// IntegrityError reports a foreign key that does not resolve in its parent
// table, or a parent key that is not unique.
type IntegrityError struct {
	Table  string
	Column string
	Key    any // nil for a null foreign key
	Parent string
	Reason string
}

func (e *IntegrityError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = fmt.Sprintf("no matching row in %q", e.Parent)
	}
	key := "NULL"
	if e.Key != nil {
		key = fmt.Sprintf("%v", e.Key)
	}
	return fmt.Sprintf("integrity error: %s.%s = %s: %s", e.Table, e.Column, key, reason)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
