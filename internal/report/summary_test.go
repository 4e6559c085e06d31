package report_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/loader"
	"github.com/franz/chinook-insights/internal/model"
	"github.com/franz/chinook-insights/internal/report"
	"github.com/shopspring/decimal"
)

const fixtureDir = "../loader/testdata/chinook"

func loadFixture(t *testing.T) dataset.Tables {
	t.Helper()
	ts, err := loader.LoadDir(context.Background(), fixtureDir)
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}
	return ts
}

func TestGenerateSummaryReport(t *testing.T) {
	ts := loadFixture(t)

	r, err := report.GenerateSummaryReport(ts, model.New(ts), report.Options{
		TopN:   2,
		AsOf:   time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC),
		Source: "csv",
	})
	if err != nil {
		t.Fatalf("GenerateSummaryReport failed: %v", err)
	}

	if r.GeneratedAt.IsZero() {
		t.Error("Expected GeneratedAt to be set")
	}
	if len(r.Tables) != 9 {
		t.Errorf("Expected 9 table summaries, got %d", len(r.Tables))
	}
	if !r.TotalRevenue.Equal(decimal.RequireFromString("5.94")) {
		t.Errorf("Expected total revenue 5.94, got %s", r.TotalRevenue)
	}
	if r.Sales.Input != 7 || r.Sales.Output != 6 {
		t.Errorf("Expected 7 lines in, 6 out, got %d/%d", r.Sales.Input, r.Sales.Output)
	}
	if r.Sales.Dropped["track"] != 1 {
		t.Errorf("Expected 1 line dropped on track, got %v", r.Sales.Dropped)
	}
	if r.Policy != "drop" {
		t.Errorf("Expected drop policy, got %q", r.Policy)
	}

	if len(r.TopCountries) != 2 {
		t.Fatalf("Expected TopN to cap rankings at 2, got %d", len(r.TopCountries))
	}
	if r.TopCountries[0].Label != "Brazil" {
		t.Errorf("Expected Brazil first, got %s", r.TopCountries[0].Label)
	}
	if len(r.Months) != 2 {
		t.Errorf("Expected 2 months with sales, got %d", len(r.Months))
	}

	customers := 0
	revenue := decimal.Zero
	for _, s := range r.Segments {
		customers += s.Customers
		revenue = revenue.Add(s.Revenue)
	}
	if customers != 3 {
		t.Errorf("Expected 3 customers across segments, got %d", customers)
	}
	if !revenue.Equal(r.TotalRevenue) {
		t.Errorf("Segment revenue %s should equal total %s", revenue, r.TotalRevenue)
	}

	if r.Durations == nil || r.Durations.Count != 4 {
		t.Errorf("Expected duration stats over 4 tracks, got %+v", r.Durations)
	}
}

func TestGenerateSummaryReport_Strict(t *testing.T) {
	ts := loadFixture(t)

	_, err := report.GenerateSummaryReport(ts, model.New(ts, model.WithPolicy(model.PolicyStrict)), report.Options{})
	if err == nil {
		t.Fatal("Expected strict policy to fail on the dangling track reference")
	}
}

func TestGenerateSummaryReport_LogsEvents(t *testing.T) {
	ts := loadFixture(t)

	logger, err := report.NewEventLogger(t.TempDir(), report.LevelDebug)
	if err != nil {
		t.Fatal(err)
	}

	r, err := report.GenerateSummaryReport(ts, model.New(ts), report.Options{Logger: logger})
	if err != nil {
		t.Fatalf("GenerateSummaryReport failed: %v", err)
	}
	logger.Close()

	if r.EventLogPath != logger.Path() {
		t.Errorf("Expected event log path %s, got %s", logger.Path(), r.EventLogPath)
	}

	content, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatal(err)
	}
	log := string(content)
	if n := strings.Count(log, `"event":"join"`); n != 2 {
		t.Errorf("Expected 2 join events, got %d", n)
	}
	if !strings.Contains(log, `"operation":"rfm"`) {
		t.Error("Expected an analyze event for rfm")
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	ts := loadFixture(t)
	r, err := report.GenerateSummaryReport(ts, model.New(ts), report.Options{
		DatabasePath: "chinook.db",
		Source:       "sqlite",
	})
	if err != nil {
		t.Fatal(err)
	}

	outputPath := filepath.Join(t.TempDir(), "reports", "summary.md")
	if err := report.WriteMarkdownReport(r, outputPath); err != nil {
		t.Fatalf("WriteMarkdownReport failed: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	md := string(content)

	expected := []string{
		"# Chinook Insights - Summary Report",
		"**Source:** sqlite",
		"`chinook.db`",
		"## 📦 Tables",
		"## 📊 Overview",
		"| Total Revenue | 5.94 |",
		"| Dropped Lines | 1 (track: 1) |",
		"## 📈 Revenue by Month",
		"| 2021-01 | 4.95 |",
		"## 🌍 Top Countries",
		"Brazil",
		"## 👤 Top Customers",
		"## 🧭 RFM Segments",
		"## ⏱️ Track Durations (minutes)",
	}
	for _, want := range expected {
		if !strings.Contains(md, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestMarkdownReportStructure(t *testing.T) {
	r := &report.SummaryReport{
		GeneratedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		TotalRevenue: decimal.RequireFromString("1234.5"),
		TopArtists: []analytics.RankedRevenue{
			{Key: "1", Label: "AC/DC", Revenue: decimal.RequireFromString("10"), Units: 10},
		},
		Segments: []report.SegmentShare{
			{Segment: "Champions", Customers: 2, Revenue: decimal.RequireFromString("20")},
		},
		AsOf: time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	md := report.RenderMarkdown(r)

	headerIdx := strings.Index(md, "# Chinook Insights")
	overviewIdx := strings.Index(md, "## 📊 Overview")
	artistsIdx := strings.Index(md, "## 🎸 Top Artists")
	segmentsIdx := strings.Index(md, "## 🧭 RFM Segments")
	if headerIdx < 0 || overviewIdx < 0 || artistsIdx < 0 || segmentsIdx < 0 {
		t.Fatalf("Missing sections:\n%s", md)
	}
	if !(headerIdx < overviewIdx && overviewIdx < artistsIdx && artistsIdx < segmentsIdx) {
		t.Error("Sections are out of order")
	}

	if !strings.Contains(md, "| Total Revenue | 1,234.50 |") {
		t.Error("Expected formatted total revenue")
	}
	if !strings.Contains(md, "| 1 | AC/DC | 10 | 10.00 |") {
		t.Error("Expected artist ranking row")
	}
	if !strings.Contains(md, "*As of 2021-07-01*") {
		t.Error("Expected RFM reference date")
	}
}

func TestReportWithEmptyData(t *testing.T) {
	md := report.RenderMarkdown(&report.SummaryReport{GeneratedAt: time.Now()})

	if !strings.Contains(md, "## 📊 Overview") {
		t.Error("Expected overview even without data")
	}
	for _, section := range []string{"Top Countries", "RFM Segments", "Revenue by Month", "Dropped Lines"} {
		if strings.Contains(md, section) {
			t.Errorf("Empty report should not contain %q", section)
		}
	}
}
