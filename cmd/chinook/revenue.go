package main

import (
	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/spf13/cobra"
)

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Show revenue per calendar month",
	RunE:  runRevenue,
}

var revenueFill bool

func init() {
	rootCmd.AddCommand(revenueCmd)
	revenueCmd.Flags().BoolVar(&revenueFill, "fill", false, "include months without sales")
}

func runRevenue(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := s.analyzer(false)
	if err != nil {
		return err
	}

	var months []analytics.MonthlyRevenue
	if revenueFill {
		months = a.RevenueByMonthFilled()
	} else {
		months = a.RevenueByMonth()
	}

	w := newTable(cmd.OutOrStdout())
	w.row("MONTH", "REVENUE")
	for _, m := range months {
		w.row(m.Label(), m.Revenue)
	}
	w.row("TOTAL", a.TotalRevenue())
	return w.flush()
}
