package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/util"
)

// ImportProgress is called after every inserted row
type ImportProgress func(table string, done, total int)

// ImportResult summarizes an import
type ImportResult struct {
	Tables   int
	Rows     int
	Added    map[string][]string // columns added to predefined tables
	Duration time.Duration
}

// ImportTables replaces the contents of every table in ts within a single
// transaction. Chinook tables land in their predefined schema; other tables
// are created from their column kinds. Columns missing from an existing
// table are added.
func (s *Store) ImportTables(ts dataset.Tables, progress ImportProgress) (*ImportResult, error) {
	if s.readOnly {
		return nil, fmt.Errorf("cannot import into read-only database %s", s.path)
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("nothing to import: %w", util.ErrNoData)
	}

	start := time.Now()
	var result *ImportResult

	// Another writer may hold the database past busy_timeout; the whole
	// transaction is replayed in that case.
	err := util.Retry(util.DefaultRetryConfig(), func() error {
		result = &ImportResult{Added: make(map[string][]string)}
		return s.Transaction(func(tx *sql.Tx) error {
			return importAll(tx, ts, result, progress)
		})
	}, "import")
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

func importAll(tx *sql.Tx, ts dataset.Tables, result *ImportResult, progress ImportProgress) error {
	for _, name := range ts.Names() {
		t := ts[name]
		added, err := importTable(tx, name, t, progress)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", name, err)
		}
		if len(added) > 0 {
			result.Added[name] = added
		}
		result.Tables++
		result.Rows += t.Len()
	}
	return nil
}

func importTable(tx *sql.Tx, name string, t *dataset.Table, progress ImportProgress) ([]string, error) {
	sqlName := sqlTableName(name)
	columns := t.Columns()

	if err := checkPrimaryKey(name, t); err != nil {
		return nil, err
	}

	exists, err := tableExists(tx, sqlName)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := tx.Exec(createTableSQL(sqlName, columns)); err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	have, err := tableColumns(tx, sqlName)
	if err != nil {
		return nil, err
	}
	var added []string
	for _, c := range columns {
		if _, ok := have[strings.ToLower(c.Name)]; ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(sqlName), quoteIdent(c.Name), declType(c.Kind))
		if _, err := tx.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to add column %s: %w", c.Name, err)
		}
		added = append(added, c.Name)
	}

	if _, err := tx.Exec("DELETE FROM " + quoteIdent(sqlName)); err != nil {
		return nil, fmt.Errorf("failed to clear table: %w", err)
	}

	stmt, err := tx.Prepare(insertSQL(sqlName, columns))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for row := 0; row < t.Len(); row++ {
		for col := range columns {
			args[col] = sqlValue(t.Value(row, col))
		}
		if _, err := stmt.Exec(args...); err != nil {
			return nil, fmt.Errorf("failed to insert row %d: %w", row+1, err)
		}
		if progress != nil {
			progress(name, row+1, t.Len())
		}
	}

	if err := recordImport(tx, name, sqlName, t); err != nil {
		return nil, err
	}
	return added, nil
}

// checkPrimaryKey rejects null ids in Chinook tables; SQLite would otherwise
// assign a rowid in their place.
func checkPrimaryKey(name string, t *dataset.Table) error {
	sqlName, ok := chinookTables[name]
	if !ok {
		return nil
	}
	pk := sqlName + "Id"
	_, idx, found := t.Column(pk)
	if !found {
		return &dataset.SchemaError{Table: name, Column: pk, Reason: "primary key column missing"}
	}
	for row := 0; row < t.Len(); row++ {
		if t.Value(row, idx) == nil {
			return &dataset.SchemaError{Table: name, Column: pk, Reason: fmt.Sprintf("null primary key in row %d", row+1)}
		}
	}
	return nil
}

func recordImport(tx *sql.Tx, name, sqlName string, t *dataset.Table) error {
	if _, err := tx.Exec("DELETE FROM imported_columns WHERE table_name = ?", name); err != nil {
		return fmt.Errorf("failed to clear import record: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO imported_tables (name, sql_name, row_count, imported_at)
		VALUES (?, ?, ?, ?)
	`, name, sqlName, t.Len(), time.Now().UTC().Format(dataset.TimeLayout)); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO imported_columns (table_name, position, column_name, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range t.Columns() {
		if _, err := stmt.Exec(name, i, c.Name, c.Kind.String()); err != nil {
			return fmt.Errorf("failed to record column %s: %w", c.Name, err)
		}
	}
	return nil
}

func sqlTableName(name string) string {
	if sqlName, ok := chinookTables[name]; ok {
		return sqlName
	}
	return name
}

// sqlValue converts a cell to its stored form; times are stored as text
func sqlValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(dataset.TimeLayout)
	}
	return v
}

func declType(k dataset.Kind) string {
	switch k {
	case dataset.KindInt:
		return "INTEGER"
	case dataset.KindFloat:
		return "REAL"
	case dataset.KindTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func createTableSQL(sqlName string, columns []dataset.Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c.Name) + " " + declType(c.Kind)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(sqlName), strings.Join(defs, ", "))
}

func insertSQL(sqlName string, columns []dataset.Column) string {
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(sqlName), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// tableColumns returns the lower-cased column names of a table with their
// declared types
func tableColumns(q querier, sqlName string) (map[string]string, error) {
	infos, err := tableInfo(q, sqlName)
	if err != nil {
		return nil, err
	}
	cols := make(map[string]string, len(infos))
	for _, info := range infos {
		cols[strings.ToLower(info.name)] = info.declType
	}
	return cols, nil
}

type columnInfo struct {
	name     string
	declType string
}

func tableInfo(q querier, sqlName string) ([]columnInfo, error) {
	rows, err := q.Query("PRAGMA table_info(" + quoteIdent(sqlName) + ")")
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", sqlName, err)
	}
	defer rows.Close()

	var infos []columnInfo
	for rows.Next() {
		var (
			cid       int
			name      string
			declType  sql.NullString
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		infos = append(infos, columnInfo{name: name, declType: declType.String})
	}
	return infos, rows.Err()
}
