package main

import (
	"fmt"
	"sort"

	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/spf13/cobra"
)

var rfmCmd = &cobra.Command{
	Use:   "rfm",
	Short: "Score customers by recency, frequency and monetary value",
	Long: `RFM scores every purchasing customer from 1 to 5 on recency, frequency
and monetary value using quantile bins, and assigns a segment.

Segments are taken from rfm.segments in the config file when present:

  rfm:
    segments:
      - name: Champions
        r: {min: 4, max: 5}
        f: {min: 4, max: 5}
        m: {min: 4, max: 5}`,
	RunE: runRFM,
}

var (
	rfmN        int
	rfmSegments bool
)

func init() {
	rootCmd.AddCommand(rfmCmd)
	rfmCmd.Flags().String("as-of", "", "reference date YYYY-MM-DD (default: day after the last sale)")
	rfmCmd.Flags().IntVarP(&rfmN, "limit", "n", 20, "number of customers (0 for all)")
	rfmCmd.Flags().BoolVar(&rfmSegments, "segments", false, "show segment totals instead of customers")
}

func runRFM(cmd *cobra.Command, args []string) error {
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

	a, err := s.analyzer(false)
	if err != nil {
		return err
	}
	scores := a.RFMAnalysis(asOf, rules...)

	out := cmd.OutOrStdout()
	if rfmSegments {
		counts := analytics.SegmentCounts(scores)
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if counts[names[i]] != counts[names[j]] {
				return counts[names[i]] > counts[names[j]]
			}
			return names[i] < names[j]
		})

		w := newTable(out)
		w.row("SEGMENT", "CUSTOMERS", "SHARE")
		for _, name := range names {
			w.row(name, counts[name], fmt.Sprintf("%.1f%%", 100*float64(counts[name])/float64(len(scores))))
		}
		return w.flush()
	}

	if rfmN > 0 && len(scores) > rfmN {
		scores = scores[:rfmN]
	}
	w := newTable(out)
	w.row("ID", "NAME", "RECENCY", "FREQ", "MONETARY", "R", "F", "M", "SCORE", "SEGMENT")
	for _, sc := range scores {
		w.row(sc.CustomerID, sc.FirstName+" "+sc.LastName, sc.Recency, sc.Frequency, sc.Monetary,
			sc.R, sc.F, sc.M, sc.Score, sc.Segment)
	}
	return w.flush()
}
