package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/loader"
	"github.com/franz/chinook-insights/internal/store"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the data sources and configuration",
	Long: `Run diagnostic checks to ensure chinook can operate correctly.

This command checks:
- SQLite version
- Data directory and which Chinook CSV files it holds
- Database accessibility, integrity and imported tables
- Event log directory permissions
- RFM segment rules from the config file`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// chinookTables are the raw tables the model joins
var chinookTables = []string{
	dataset.TableAlbum, dataset.TableArtist, dataset.TableCustomer,
	dataset.TableEmployee, dataset.TableGenre, dataset.TableInvoice,
	dataset.TableInvoiceLine, dataset.TableMediaType, dataset.TableTrack,
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Chinook Doctor - Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{
		checkSQLite(),
		checkDataDirectory(GetConfigString("data-dir", "data")),
		checkDatabase(GetConfigString("db", "chinook.db")),
	}
	if dir := viper.GetString("events-dir"); dir != "" {
		results = append(results, checkEventsDirectory(dir))
	}
	results = append(results, checkSegments())

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before running chinook.")
		return fmt.Errorf("diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed!")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite driver answers
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDataDirectory reports which Chinook tables have a CSV file. Missing
// tables only warn since --source sqlite does not need the directory.
func checkDataDirectory(path string) checkResult {
	entries, err := os.ReadDir(path)
	if err != nil {
		return checkResult{
			name:    "Data directory",
			warning: true,
			message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	found := make(map[string]bool)
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			found[loader.TableName(e.Name())] = true
		}
	}

	var missing []string
	for _, name := range chinookTables {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return checkResult{
			name:    "Data directory",
			warning: true,
			message: fmt.Sprintf("%s is missing %s", path, strings.Join(missing, ", ")),
		}
	}

	return checkResult{
		name:    "Data directory",
		message: fmt.Sprintf("%s (%d CSV files)", path, len(found)),
	}
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created by chinook import)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{ReadOnly: true})
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	imported, err := db.ImportedTables()
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot list imported tables: %v", err),
		}
	}

	size := util.FormatBytes(info.Size())
	if len(imported) == 0 {
		return checkResult{
			name:    "Database",
			message: fmt.Sprintf("%s (%s, not imported by chinook; tables read as-is)", dbPath, size),
		}
	}

	rows := 0
	for _, t := range imported {
		rows += t.Rows
	}
	return checkResult{
		name:    "Database",
		message: fmt.Sprintf("%s (%s, %d tables, %s rows)", dbPath, size, len(imported), util.FormatCount(rows)),
	}
}

// checkEventsDirectory verifies the event log directory is writable
func checkEventsDirectory(path string) checkResult {
	if err := os.MkdirAll(path, 0755); err != nil {
		return checkResult{
			name:    "Events directory",
			error:   true,
			message: fmt.Sprintf("cannot create %s: %v", path, err),
		}
	}

	testFile := filepath.Join(path, ".chinook_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Events directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Events directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkSegments validates rfm.segments from the config file
func checkSegments() checkResult {
	rules, err := segmentRules()
	if err != nil {
		return checkResult{
			name:    "RFM segments",
			error:   true,
			message: err.Error(),
		}
	}
	if rules == nil {
		return checkResult{
			name:    "RFM segments",
			message: "built-in rules",
		}
	}
	return checkResult{
		name:    "RFM segments",
		message: fmt.Sprintf("%d rules from config", len(rules)),
	}
}
