// Package loader reads a directory of Chinook CSV exports into dataset.Tables.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/report"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/sourcegraph/conc/pool"
)

// Loader parses every *.csv file of a directory into a typed table
type Loader struct {
	dir         string
	concurrency int
	logger      *report.EventLogger
}

// Config holds loader configuration
type Config struct {
	Dir         string
	Concurrency int
	Logger      *report.EventLogger
}

// New creates a new Loader
func New(cfg *Config) *Loader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Loader{
		dir:         cfg.Dir,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// LoadDir loads dir with default settings
func LoadDir(ctx context.Context, dir string) (dataset.Tables, error) {
	return New(&Config{Dir: dir}).Load(ctx)
}

// Load reads every CSV file in the directory. The table name is the file
// name without extension, lower-cased. Files are parsed concurrently; the
// first failure cancels the rest.
func (l *Loader) Load(ctx context.Context) (dataset.Tables, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("data directory not found: %s: %w", l.dir, util.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", l.dir)
	}

	files, err := csvFiles(l.dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files in %s: %w", l.dir, util.ErrNoData)
	}

	util.DebugLog("Loading %d CSV files from %s", len(files), l.dir)

	p := pool.NewWithResults[*dataset.Table]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(l.concurrency)

	for _, path := range files {
		path := path
		p.Go(func(ctx context.Context) (*dataset.Table, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			start := time.Now()
			t, err := ParseFile(path)
			if err != nil {
				l.logger.LogError(report.EventLoad, path, err)
				return nil, err
			}
			l.logger.LogLoad("csv", t.Name(), t.Len(), time.Since(start))
			util.DebugLog("  %s: %s rows", t.Name(), util.FormatCount(t.Len()))
			return t, nil
		})
	}

	parsed, err := p.Wait()
	if err != nil {
		return nil, err
	}

	tables := make(dataset.Tables, len(parsed))
	for _, t := range parsed {
		if _, dup := tables[t.Name()]; dup {
			return nil, fmt.Errorf("table %q defined by more than one file in %s", t.Name(), l.dir)
		}
		tables[t.Name()] = t
	}

	util.InfoLog("Loaded %d tables from %s", len(tables), l.dir)
	return tables, nil
}

// csvFiles lists *.csv files (case-insensitive) in dir, sorted
func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// TableName derives the table key from a CSV file path
func TableName(path string) string {
	base := filepath.Base(path)
	return dataset.NormalizeName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ParseFile reads one CSV file into a table named after the file
func ParseFile(path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(TableName(path), f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Parse reads CSV with a header row and infers a kind for every column
func Parse(name string, r io.Reader) (*dataset.Table, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}

	columns := make([]dataset.Column, len(headers))
	rows := make([][]any, len(records))
	for i := range rows {
		rows[i] = make([]any, len(headers))
	}

	cells := make([]string, len(records))
	for c, header := range headers {
		for i, rec := range records {
			cells[i] = rec[c]
		}
		kind, values := inferColumn(header, cells)
		columns[c] = dataset.Column{Name: header, Kind: kind}
		for i, v := range values {
			rows[i][c] = v
		}
	}

	return dataset.NewTable(name, columns, rows)
}
