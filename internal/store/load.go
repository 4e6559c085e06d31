package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/util"
)

// ImportedTable is the bookkeeping record of one imported table
type ImportedTable struct {
	Name       string
	SQLName    string
	Rows       int
	ImportedAt time.Time
}

// ImportedTables lists the tables written by ImportTables, by name
func (s *Store) ImportedTables() ([]ImportedTable, error) {
	exists, err := tableExists(s.db, "imported_tables")
	if err != nil || !exists {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT name, sql_name, row_count, imported_at FROM imported_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list imported tables: %w", err)
	}
	defer rows.Close()

	var tables []ImportedTable
	for rows.Next() {
		var (
			t  ImportedTable
			at any
		)
		if err := rows.Scan(&t.Name, &t.SQLName, &t.Rows, &at); err != nil {
			return nil, err
		}
		t.ImportedAt, _ = coerce(dataset.KindTime, at).(time.Time)
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// LoadTables reads the database into dataset.Tables. Tables written by
// ImportTables come back with their original columns and kinds. A database
// this package never migrated, such as the stock chinook.db, is read table by
// table with kinds inferred from declared column types.
func (s *Store) LoadTables() (dataset.Tables, error) {
	version, err := s.getSchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == 0 {
		return s.loadForeign()
	}

	imported, err := s.ImportedTables()
	if err != nil {
		return nil, err
	}
	if len(imported) == 0 {
		return nil, fmt.Errorf("database %s has no imported tables: %w", s.path, util.ErrNoData)
	}

	tables := make(dataset.Tables, len(imported))
	for _, it := range imported {
		columns, err := s.importedColumns(it.Name)
		if err != nil {
			return nil, err
		}
		t, err := s.readTable(it.Name, it.SQLName, columns)
		if err != nil {
			return nil, err
		}
		tables[it.Name] = t
	}
	return tables, nil
}

func (s *Store) importedColumns(name string) ([]dataset.Column, error) {
	rows, err := s.db.Query(`
		SELECT column_name, kind FROM imported_columns
		WHERE table_name = ? ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	defer rows.Close()

	var columns []dataset.Column
	for rows.Next() {
		var colName, kind string
		if err := rows.Scan(&colName, &kind); err != nil {
			return nil, err
		}
		k, err := dataset.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("table %s column %s: %w", name, colName, err)
		}
		columns = append(columns, dataset.Column{Name: colName, Kind: k})
	}
	return columns, rows.Err()
}

// loadForeign reads every user table of a database without import records
func (s *Store) loadForeign() (dataset.Tables, error) {
	rows, err := s.db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	var sqlNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		if !internalTables[strings.ToLower(name)] {
			sqlNames = append(sqlNames, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sqlNames) == 0 {
		return nil, fmt.Errorf("database %s has no tables: %w", s.path, util.ErrNoData)
	}

	tables := make(dataset.Tables, len(sqlNames))
	for _, sqlName := range sqlNames {
		infos, err := tableInfo(s.db, sqlName)
		if err != nil {
			return nil, err
		}
		columns := make([]dataset.Column, len(infos))
		for i, info := range infos {
			columns[i] = dataset.Column{Name: info.name, Kind: kindFromDecl(info.name, info.declType)}
		}
		name := dataset.NormalizeName(sqlName)
		t, err := s.readTable(name, sqlName, columns)
		if err != nil {
			return nil, err
		}
		tables[name] = t
	}
	util.DebugLog("Read %d tables from %s without import records", len(tables), s.path)
	return tables, nil
}

func (s *Store) readTable(name, sqlName string, columns []dataset.Column) (*dataset.Table, error) {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c.Name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(names, ", "), quoteIdent(sqlName))

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", sqlName, err)
	}
	defer rows.Close()

	var data [][]any
	raw := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", sqlName, err)
		}
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = coerce(c.Kind, raw[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dataset.NewTable(name, columns, data)
}

// kindFromDecl maps a declared SQLite column type to a kind, following
// SQLite's affinity rules. Columns named like dates are times.
func kindFromDecl(column, decl string) dataset.Kind {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "DATE") || strings.Contains(d, "TIME"):
		return dataset.KindTime
	case strings.Contains(d, "INT"):
		return dataset.KindInt
	case strings.Contains(d, "CHAR") || strings.Contains(d, "CLOB") || strings.Contains(d, "TEXT"):
		if strings.Contains(strings.ToLower(column), "date") {
			return dataset.KindTime
		}
		return dataset.KindString
	case strings.Contains(d, "REAL") || strings.Contains(d, "FLOA") || strings.Contains(d, "DOUB") ||
		strings.Contains(d, "NUMERIC") || strings.Contains(d, "DECIMAL"):
		return dataset.KindFloat
	default:
		return dataset.KindString
	}
}

// coerce converts a scanned SQLite value to the cell type of kind k.
// Values that cannot be represented become null.
func coerce(k dataset.Kind, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}

	switch k {
	case dataset.KindInt:
		switch x := v.(type) {
		case int64:
			return x
		case float64:
			if x == math.Trunc(x) {
				return int64(x)
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
				return n
			}
		}
	case dataset.KindFloat:
		switch x := v.(type) {
		case float64:
			if !math.IsNaN(x) && !math.IsInf(x, 0) {
				return x
			}
		case int64:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return f
			}
		}
	case dataset.KindTime:
		switch x := v.(type) {
		case time.Time:
			return x.UTC()
		case string:
			if t, ok := dataset.ParseTime(x); ok {
				return t
			}
		}
	default:
		switch x := v.(type) {
		case string:
			return x
		case time.Time:
			return x.UTC().Format(dataset.TimeLayout)
		default:
			return fmt.Sprint(x)
		}
	}
	return nil
}
