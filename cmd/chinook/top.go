package main

import (
	"fmt"
	"strings"

	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/spf13/cobra"
)

var topCmd = &cobra.Command{
	Use:       "top <countries|artists|genres|tracks>",
	Short:     "Rank countries, artists, genres or tracks by revenue",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"countries", "artists", "genres", "tracks"},
	RunE:      runTop,
}

var topN int

func init() {
	rootCmd.AddCommand(topCmd)
	topCmd.Flags().IntVarP(&topN, "limit", "n", 10, "number of rows (0 for all)")
}

func runTop(cmd *cobra.Command, args []string) error {
	dimension := strings.ToLower(args[0])

	var rank func(*analytics.Analyzer, int) []analytics.RankedRevenue
	switch dimension {
	case "countries", "country":
		rank = (*analytics.Analyzer).TopCountriesByRevenue
	case "artists", "artist":
		rank = (*analytics.Analyzer).TopArtistsByRevenue
	case "genres", "genre":
		rank = (*analytics.Analyzer).TopGenresByRevenue
	case "tracks", "track":
		rank = (*analytics.Analyzer).TopTracksByRevenue
	default:
		return fmt.Errorf("unknown ranking %q (want countries, artists, genres or tracks)", args[0])
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

	w := newTable(cmd.OutOrStdout())
	w.row("#", "NAME", "REVENUE", "UNITS")
	for i, r := range rank(a, topN) {
		w.row(i+1, r.Label, r.Revenue, r.Units)
	}
	return w.flush()
}
