package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/model"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/shopspring/decimal"
)

// SummaryReport represents a complete analytics report
type SummaryReport struct {
	GeneratedAt time.Time
	Duration    time.Duration

	// Input data
	Tables []dataset.TableSummary
	Issues []dataset.Issue

	// Join statistics
	Sales   model.JoinStats
	Catalog model.JoinStats

	// Revenue
	TotalRevenue decimal.Decimal
	Months       []analytics.MonthlyRevenue
	TopCountries []analytics.RankedRevenue
	TopArtists   []analytics.RankedRevenue
	TopGenres    []analytics.RankedRevenue
	TopTracks    []analytics.RankedRevenue

	// Customers
	TopCustomers []analytics.CustomerValue
	Segments     []SegmentShare
	AsOf         time.Time

	// Catalog
	Durations *analytics.DurationSummary
	TopWords  []analytics.WordCount

	// Metadata
	Source       string
	DatabasePath string
	EventLogPath string
	Policy       string
}

// SegmentShare is the size and revenue of one RFM segment
type SegmentShare struct {
	Segment   string
	Customers int
	Revenue   decimal.Decimal
}

// Options controls report generation
type Options struct {
	TopN     int
	AsOf     time.Time
	Segments []analytics.SegmentRule
	Logger   *EventLogger

	Source       string
	DatabasePath string
}

// GenerateSummaryReport builds the derived tables from m and runs every
// analysis over them.
func GenerateSummaryReport(ts dataset.Tables, m *model.Model, opts Options) (*SummaryReport, error) {
	start := time.Now()
	if opts.TopN <= 0 {
		opts.TopN = 10
	}

	report := &SummaryReport{
		GeneratedAt:  start,
		Tables:       dataset.Summarize(ts),
		Issues:       dataset.Validate(ts),
		Source:       opts.Source,
		DatabasePath: opts.DatabasePath,
		EventLogPath: opts.Logger.Path(),
		Policy:       m.Policy().String(),
	}

	sales, salesStats, err := m.SalesLineItems()
	if err != nil {
		return nil, fmt.Errorf("failed to build sales line items: %w", err)
	}
	report.Sales = salesStats
	opts.Logger.LogJoin("sales_line_items", salesStats.Input, salesStats.Output, salesStats.Dropped)

	catalog, catalogStats, err := m.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	report.Catalog = catalogStats
	opts.Logger.LogJoin("catalog", catalogStats.Input, catalogStats.Output, catalogStats.Dropped)

	a := analytics.New(sales, catalog)
	timed := func(op string, rows func() int) {
		t := time.Now()
		n := rows()
		opts.Logger.LogAnalyze(op, n, time.Since(t))
	}

	report.TotalRevenue = a.TotalRevenue()
	timed("revenue_by_month", func() int {
		report.Months = a.RevenueByMonth()
		return len(report.Months)
	})
	timed("top_countries", func() int {
		report.TopCountries = a.TopCountriesByRevenue(opts.TopN)
		return len(report.TopCountries)
	})
	timed("top_artists", func() int {
		report.TopArtists = a.TopArtistsByRevenue(opts.TopN)
		return len(report.TopArtists)
	})
	timed("top_genres", func() int {
		report.TopGenres = a.TopGenresByRevenue(opts.TopN)
		return len(report.TopGenres)
	})
	timed("top_tracks", func() int {
		report.TopTracks = a.TopTracksByRevenue(opts.TopN)
		return len(report.TopTracks)
	})
	timed("top_customers", func() int {
		report.TopCustomers = a.TopCustomers(opts.TopN)
		return len(report.TopCustomers)
	})
	timed("rfm", func() int {
		scores := a.RFMAnalysis(opts.AsOf, opts.Segments...)
		report.Segments = segmentShares(scores)
		return len(scores)
	})
	report.AsOf = opts.AsOf

	durations, err := a.DurationStats()
	if err != nil {
		return nil, err
	}
	report.Durations = &durations
	if report.TopWords, err = a.TopWordsInTrackTitles(opts.TopN, nil); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	return report, nil
}

// segmentShares groups RFM scores by segment, largest first
func segmentShares(scores []analytics.RFMScore) []SegmentShare {
	bySegment := make(map[string]*SegmentShare)
	for _, s := range scores {
		share, ok := bySegment[s.Segment]
		if !ok {
			share = &SegmentShare{Segment: s.Segment, Revenue: decimal.Zero}
			bySegment[s.Segment] = share
		}
		share.Customers++
		share.Revenue = share.Revenue.Add(s.Monetary)
	}

	shares := make([]SegmentShare, 0, len(bySegment))
	for _, share := range bySegment {
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Customers != shares[j].Customers {
			return shares[i].Customers > shares[j].Customers
		}
		return shares[i].Segment < shares[j].Segment
	})
	return shares
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// RenderMarkdown formats the report as a Markdown document
func RenderMarkdown(report *SummaryReport) string {
	var md strings.Builder

	md.WriteString("# Chinook Insights - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.Source != "" {
		md.WriteString(fmt.Sprintf("**Source:** %s\n\n", report.Source))
	}
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}
	md.WriteString("---\n\n")

	// Tables
	if len(report.Tables) > 0 {
		md.WriteString("## 📦 Tables\n\n")
		md.WriteString("| Table | Rows | Columns | Missing Values |\n")
		md.WriteString("|-------|------|---------|----------------|\n")
		for _, t := range report.Tables {
			md.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
				t.Table, util.FormatCount(t.Rows), t.Columns, util.FormatCount(t.Missing)))
		}
		md.WriteString("\n")
	}

	if len(report.Issues) > 0 {
		md.WriteString("## ⚠️ Validation Issues\n\n")
		for _, issue := range report.Issues {
			md.WriteString(fmt.Sprintf("- **%s**: %s\n", issue.Table, issue.Issue))
		}
		md.WriteString("\n")
	}

	// Overview
	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Invoice Lines | %s |\n", util.FormatCount(report.Sales.Input)))
	md.WriteString(fmt.Sprintf("| Sales Line Items | %s |\n", util.FormatCount(report.Sales.Output)))
	if dropped := report.Sales.DroppedTotal(); dropped > 0 {
		md.WriteString(fmt.Sprintf("| Dropped Lines | %s (%s) |\n", util.FormatCount(dropped), formatDropped(report.Sales.Dropped)))
	}
	md.WriteString(fmt.Sprintf("| Catalog Tracks | %s |\n", util.FormatCount(report.Catalog.Output)))
	md.WriteString(fmt.Sprintf("| Total Revenue | %s |\n", util.FormatMoney(report.TotalRevenue)))
	if report.Policy != "" {
		md.WriteString(fmt.Sprintf("| Join Policy | %s |\n", report.Policy))
	}
	md.WriteString("\n")

	// Revenue by month
	if len(report.Months) > 0 {
		md.WriteString("## 📈 Revenue by Month\n\n")
		md.WriteString("| Month | Revenue |\n")
		md.WriteString("|-------|---------|\n")
		for _, m := range report.Months {
			md.WriteString(fmt.Sprintf("| %s | %s |\n", m.Label(), util.FormatMoney(m.Revenue)))
		}
		md.WriteString("\n")
	}

	writeRanking(&md, "🌍 Top Countries", "Country", report.TopCountries)
	writeRanking(&md, "🎸 Top Artists", "Artist", report.TopArtists)
	writeRanking(&md, "🎼 Top Genres", "Genre", report.TopGenres)
	writeRanking(&md, "🎵 Top Tracks", "Track", report.TopTracks)

	// Customers
	if len(report.TopCustomers) > 0 {
		md.WriteString("## 👤 Top Customers\n\n")
		md.WriteString("| # | Customer | Country | Invoices | Lifetime Value |\n")
		md.WriteString("|---|----------|---------|----------|----------------|\n")
		for i, c := range report.TopCustomers {
			md.WriteString(fmt.Sprintf("| %d | %s %s | %s | %d | %s |\n",
				i+1, c.FirstName, c.LastName, c.Country, c.Invoices, util.FormatMoney(c.Revenue)))
		}
		md.WriteString("\n")
	}

	if len(report.Segments) > 0 {
		md.WriteString("## 🧭 RFM Segments\n\n")
		if !report.AsOf.IsZero() {
			md.WriteString(fmt.Sprintf("*As of %s*\n\n", report.AsOf.Format("2006-01-02")))
		}
		md.WriteString("| Segment | Customers | Revenue |\n")
		md.WriteString("|---------|-----------|---------|\n")
		for _, s := range report.Segments {
			md.WriteString(fmt.Sprintf("| %s | %d | %s |\n", s.Segment, s.Customers, util.FormatMoney(s.Revenue)))
		}
		md.WriteString("\n")
	}

	// Catalog
	if report.Durations != nil && report.Durations.Count > 0 {
		d := report.Durations
		md.WriteString("## ⏱️ Track Durations (minutes)\n\n")
		md.WriteString("| Count | Mean | Std | Min | 25% | Median | 75% | Max |\n")
		md.WriteString("|-------|------|-----|-----|-----|--------|-----|-----|\n")
		md.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n\n",
			util.FormatCount(d.Count), d.Mean, d.Std, d.Min, d.P25, d.Median, d.P75, d.Max))
	}

	if len(report.TopWords) > 0 {
		md.WriteString("## 🔤 Common Words in Track Titles\n\n")
		md.WriteString("| Word | Count |\n")
		md.WriteString("|------|-------|\n")
		for _, w := range report.TopWords {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", w.Word, w.Count))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString(fmt.Sprintf("*Generated by chinook-insights in %s*\n", report.Duration.Round(time.Millisecond)))

	return md.String()
}

func writeRanking(md *strings.Builder, title, column string, rows []analytics.RankedRevenue) {
	if len(rows) == 0 {
		return
	}
	md.WriteString(fmt.Sprintf("## %s\n\n", title))
	md.WriteString(fmt.Sprintf("| # | %s | Units | Revenue |\n", column))
	md.WriteString("|---|------|-------|---------|\n")
	for i, r := range rows {
		md.WriteString(fmt.Sprintf("| %d | %s | %d | %s |\n",
			i+1, util.Truncate(r.Label, 48), r.Units, util.FormatMoney(r.Revenue)))
	}
	md.WriteString("\n")
}

// formatDropped renders per-relation drop counts as "track: 2, album: 1"
func formatDropped(dropped map[string]int) string {
	parts := make([]string, 0, len(dropped))
	for rel, n := range dropped {
		parts = append(parts, fmt.Sprintf("%s: %d", rel, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
