package main

import (
	"fmt"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show row counts and data-quality issues of the loaded tables",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	w := newTable(cmd.OutOrStdout())
	w.row("TABLE", "ROWS", "COLUMNS", "MISSING")
	for _, t := range dataset.Summarize(s.tables) {
		w.row(t.Table, t.Rows, t.Columns, t.Missing)
	}
	if err := w.flush(); err != nil {
		return err
	}

	issues := dataset.Validate(s.tables)
	if len(issues) == 0 {
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout())
	w = newTable(cmd.OutOrStdout())
	w.row("TABLE", "ISSUE")
	for _, is := range issues {
		w.row(is.Table, is.Issue)
	}
	return w.flush()
}
