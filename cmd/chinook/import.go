package main

import (
	"fmt"
	"time"

	"github.com/franz/chinook-insights/internal/loader"
	"github.com/franz/chinook-insights/internal/report"
	"github.com/franz/chinook-insights/internal/store"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the CSV files into a SQLite database",
	Long: `Import parses every CSV file in --data-dir and writes the tables into the
SQLite database given by --db. Existing rows are replaced. Afterwards the
other commands can read from the database with --source sqlite.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	dataDir := GetConfigString("data-dir", "data")
	dbPath := GetConfigString("db", "chinook.db")

	logger := newEventLogger()
	defer logger.Close()

	util.InfoLog("Loading CSV files from %s", dataDir)
	tables, err := loader.New(&loader.Config{
		Dir:         dataDir,
		Concurrency: GetConfigInt("concurrency", 4),
		Logger:      logger,
	}).Load(cmd.Context())
	if err != nil {
		logger.LogError(report.EventLoad, dataDir, err)
		return err
	}

	total := 0
	for _, t := range tables {
		total += t.Len()
	}

	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{BulkLoad: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var bar *progressbar.ProgressBar
	if util.StdoutIsTerminal() && !util.IsQuiet() {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	current := ""
	result, err := db.ImportTables(tables, func(table string, done, rows int) {
		if bar == nil {
			return
		}
		if table != current {
			current = table
			bar.Describe(fmt.Sprintf("Importing %s", table))
		}
		bar.Add(1)
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		logger.LogError(report.EventImport, dbPath, err)
		return fmt.Errorf("import failed: %w", err)
	}

	for _, name := range tables.Names() {
		logger.LogImport(name, tables[name].Len(), nil)
	}
	for table, columns := range result.Added {
		util.WarnLog("%s: added columns %v", table, columns)
	}

	util.SuccessLog("Imported %s rows from %d tables in %v",
		util.FormatCount(result.Rows), result.Tables, result.Duration.Round(time.Millisecond))
	util.InfoLog("Database: %s", dbPath)
	if viper.GetString("source") != "sqlite" {
		util.InfoLog("Next step: chinook report --source sqlite --db %s", dbPath)
	}
	return nil
}
