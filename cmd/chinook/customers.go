package main

import (
	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/franz/chinook-insights/internal/model"
	"github.com/spf13/cobra"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Show customer lifetime value",
	Long: `Customers lists the lifetime revenue of each purchasing customer, highest
first. With --all, customers that never purchased are listed with zero.`,
	RunE: runCustomers,
}

var (
	customersN   int
	customersAll bool
)

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.Flags().IntVarP(&customersN, "limit", "n", 10, "number of rows (0 for all)")
	customersCmd.Flags().BoolVar(&customersAll, "all", false, "include customers without purchases")
}

func runCustomers(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := s.analyzer(false)
	if err != nil {
		return err
	}

	var values []analytics.CustomerValue
	if customersAll {
		dims, stats, err := s.model.CustomersDim()
		if err != nil {
			return err
		}
		s.logJoin("customers", stats)
		values = a.CustomerLifetimeValueWithRoster(model.Roster(dims))
	} else {
		values = a.CustomerLifetimeValue()
	}
	if customersN > 0 && len(values) > customersN {
		values = values[:customersN]
	}

	w := newTable(cmd.OutOrStdout())
	w.row("ID", "NAME", "COUNTRY", "INVOICES", "REVENUE")
	for _, v := range values {
		w.row(v.CustomerID, v.FirstName+" "+v.LastName, v.Country, v.Invoices, v.Revenue)
	}
	return w.flush()
}
