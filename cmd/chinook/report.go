package main

import (
	"path/filepath"

	"github.com/franz/chinook-insights/internal/report"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a markdown summary report",
	Long: `Report runs every analysis over the loaded data and writes a markdown
summary: table overview, join drops, monthly revenue, rankings, top
customers, RFM segments and catalog statistics.`,
	RunE: runReport,
}

var (
	reportOut string
	reportN   int
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (default: artifacts/reports/summary.md)")
	reportCmd.Flags().IntVarP(&reportN, "limit", "n", 10, "rows per ranking")
	reportCmd.Flags().String("as-of", "", "RFM reference date YYYY-MM-DD")
}

func runReport(cmd *cobra.Command, args []string) error {
	asOf, err := asOfDate(cmd)
	if err != nil {
		return err
	}
	rules, err := segmentRules()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	util.InfoLog("Generating report...")
	summary, err := report.GenerateSummaryReport(s.tables, s.model, report.Options{
		TopN:         reportN,
		AsOf:         asOf,
		Segments:     rules,
		Logger:       s.logger,
		Source:       s.source,
		DatabasePath: GetConfigString("db", "chinook.db"),
	})
	if err != nil {
		return err
	}

	out := reportOut
	if out == "" {
		out = filepath.Join("artifacts", "reports", "summary.md")
	}
	if err := report.WriteMarkdownReport(summary, out); err != nil {
		return err
	}
	s.logger.LogReport(out)

	util.SuccessLog("Report written: %s", out)
	return nil
}
