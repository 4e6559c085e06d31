package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show track duration statistics and common title words",
	RunE:  runCatalog,
}

var catalogWords int

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().IntVar(&catalogWords, "words", 10, "number of common title words")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := s.analyzer(true)
	if err != nil {
		return err
	}

	d, err := a.DurationStats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := newTable(out)
	w.row("TRACKS", "MEAN", "STD", "MIN", "P25", "MEDIAN", "P75", "MAX")
	w.row(d.Count, minutes(d.Mean), minutes(d.Std), minutes(d.Min), minutes(d.P25),
		minutes(d.Median), minutes(d.P75), minutes(d.Max))
	if err := w.flush(); err != nil {
		return err
	}

	if catalogWords <= 0 {
		return nil
	}
	words, err := a.TopWordsInTrackTitles(catalogWords, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	w = newTable(out)
	w.row("WORD", "COUNT")
	for _, wc := range words {
		w.row(wc.Word, wc.Count)
	}
	return w.flush()
}

func minutes(m float64) string {
	return fmt.Sprintf("%.2f", m)
}
