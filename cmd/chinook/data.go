package main

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/loader"
	"github.com/franz/chinook-insights/internal/model"
	"github.com/franz/chinook-insights/internal/report"
	"github.com/franz/chinook-insights/internal/store"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/spf13/viper"
)

// session holds the loaded tables and the event logger for one command run
type session struct {
	source string
	tables dataset.Tables
	model  *model.Model
	logger *report.EventLogger
}

// newEventLogger opens the JSONL event log when events-dir is configured
func newEventLogger() *report.EventLogger {
	dir := viper.GetString("events-dir")
	if dir == "" {
		return report.NullLogger()
	}

	logLevel := report.LevelInfo // Default
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning // Only warnings and errors
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug // Everything
	}

	logger, err := report.NewEventLogger(dir, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	util.DebugLog("Event log: %s", logger.Path())
	return logger
}

// openSession loads the tables from the configured source and builds the model
func openSession(ctx context.Context) (*session, error) {
	policy, err := joinPolicy()
	if err != nil {
		return nil, err
	}

	s := &session{
		source: GetConfigString("source", "csv"),
		logger: newEventLogger(),
	}

	start := time.Now()
	switch s.source {
	case "csv":
		dir := GetConfigString("data-dir", "data")
		util.DebugLog("Loading CSV files from %s", dir)
		s.tables, err = loader.New(&loader.Config{
			Dir:         dir,
			Concurrency: GetConfigInt("concurrency", 4),
			Logger:      s.logger,
		}).Load(ctx)
	case "sqlite":
		s.tables, err = loadDatabase(s.logger)
	default:
		err = fmt.Errorf("%w: unknown source %q (want csv or sqlite)", util.ErrInvalidConfig, s.source)
	}
	if err != nil {
		s.logger.LogError(report.EventLoad, s.source, err)
		s.logger.Close()
		return nil, err
	}
	util.DebugLog("Loaded %d tables in %v", len(s.tables), time.Since(start).Round(time.Millisecond))

	s.model = model.New(s.tables, model.WithPolicy(policy))
	return s, nil
}

func loadDatabase(logger *report.EventLogger) (dataset.Tables, error) {
	dbPath := GetConfigString("db", "chinook.db")
	util.DebugLog("Opening database: %s", dbPath)

	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	start := time.Now()
	ts, err := db.LoadTables()
	if err != nil {
		return nil, err
	}
	for _, name := range ts.Names() {
		logger.LogLoad(dbPath, name, ts[name].Len(), time.Since(start))
	}
	return ts, nil
}

func (s *session) Close() error {
	return s.logger.Close()
}

// sales builds the sales fact table and records the join
func (s *session) sales() ([]model.SalesLineItem, error) {
	items, stats, err := s.model.SalesLineItems()
	if err != nil {
		s.logger.LogError(report.EventJoin, "sales_line_items", err)
		return nil, err
	}
	s.logJoin("sales_line_items", stats)
	return items, nil
}

// catalog builds the track catalog and records the join
func (s *session) catalog() ([]model.CatalogEntry, error) {
	entries, stats, err := s.model.Catalog()
	if err != nil {
		s.logger.LogError(report.EventJoin, "catalog", err)
		return nil, err
	}
	s.logJoin("catalog", stats)
	return entries, nil
}

func (s *session) logJoin(table string, stats model.JoinStats) {
	s.logger.LogJoin(table, stats.Input, stats.Output, stats.Dropped)
	if n := stats.DroppedTotal(); n > 0 {
		util.WarnLog("%s: dropped %d of %d rows with unresolved references", table, n, stats.Input)
		for parent, count := range stats.Dropped {
			util.DebugLog("  %s: %d", parent, count)
		}
	}
}

// analyzer builds an Analyzer over the sales table, plus the catalog when
// withCatalog is set.
func (s *session) analyzer(withCatalog bool) (*analytics.Analyzer, error) {
	items, err := s.sales()
	if err != nil {
		return nil, err
	}
	var entries []model.CatalogEntry
	if withCatalog {
		if entries, err = s.catalog(); err != nil {
			return nil, err
		}
	}
	return analytics.New(items, entries), nil
}
