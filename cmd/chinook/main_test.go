package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/spf13/viper"
)

const fixtureDir = "../../internal/loader/testdata/chinook"

// run executes the root command. Flags keep their values between runs, so
// every call spells out the persistent ones.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	util.SetOutput(io.Discard)
	t.Cleanup(func() { util.SetOutput(nil) })

	base := []string{"--quiet=true", "--verbose=false", "--strict=false", "--events-dir=", "--config="}
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func csvArgs(args ...string) []string {
	return append(args, "--source=csv", "--data-dir="+fixtureDir)
}

func TestRevenueFromCSV(t *testing.T) {
	out, err := run(t, csvArgs("revenue", "--fill=false")...)
	if err != nil {
		t.Fatalf("revenue failed: %v", err)
	}

	for _, want := range []string{"MONTH", "2021-01", "4.95", "2021-03", "0.99", "TOTAL", "5.94"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "2021-02") {
		t.Errorf("sparse revenue should not list 2021-02:\n%s", out)
	}

	out, err = run(t, csvArgs("revenue", "--fill=true")...)
	if err != nil {
		t.Fatalf("revenue --fill failed: %v", err)
	}
	if !strings.Contains(out, "2021-02") {
		t.Errorf("filled revenue should list 2021-02:\n%s", out)
	}
}

func TestImportThenQueryDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chinook.db")

	if _, err := run(t, "import", "--data-dir="+fixtureDir, "--db="+dbPath, "--source=csv"); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created: %v", err)
	}

	out, err := run(t, "top", "countries", "--limit=0", "--source=sqlite", "--db="+dbPath)
	if err != nil {
		t.Fatalf("top countries failed: %v", err)
	}

	brazil := strings.Index(out, "Brazil")
	germany := strings.Index(out, "Germany")
	canada := strings.Index(out, "Canada")
	if brazil < 0 || germany < 0 || canada < 0 {
		t.Fatalf("expected all three countries:\n%s", out)
	}
	if !(brazil < germany && germany < canada) {
		t.Errorf("countries out of revenue order:\n%s", out)
	}
	if !strings.Contains(out, "2.97") {
		t.Errorf("expected Brazil revenue 2.97:\n%s", out)
	}
}

func TestTopLimit(t *testing.T) {
	out, err := run(t, csvArgs("top", "countries", "--limit=1")...)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if !strings.Contains(out, "Brazil") || strings.Contains(out, "Germany") {
		t.Errorf("expected only Brazil:\n%s", out)
	}
}

func TestTopRejectsUnknownDimension(t *testing.T) {
	if _, err := run(t, csvArgs("top", "planets")...); err == nil {
		t.Error("expected error for unknown ranking")
	}
}

func TestStrictPolicyFailsOnDanglingTrack(t *testing.T) {
	util.SetOutput(io.Discard)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(csvArgs("revenue", "--fill=false", "--quiet=true", "--events-dir=", "--strict=true"))
	err := rootCmd.ExecuteContext(context.Background())
	util.SetOutput(nil)

	if !errors.Is(err, dataset.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestUnknownSource(t *testing.T) {
	_, err := run(t, "summary", "--source=parquet")
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSummaryListsTables(t *testing.T) {
	out, err := run(t, csvArgs("summary")...)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{"invoiceline", "customer", "track"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestCustomersAll(t *testing.T) {
	out, err := run(t, csvArgs("customers", "--all=true", "--limit=0")...)
	if err != nil {
		t.Fatalf("customers failed: %v", err)
	}
	if !strings.Contains(out, "Luís") || !strings.Contains(out, "François") {
		t.Errorf("expected roster names:\n%s", out)
	}
}

func TestRFM(t *testing.T) {
	out, err := run(t, csvArgs("rfm", "--as-of=2021-04-01", "--segments=false", "--limit=0")...)
	if err != nil {
		t.Fatalf("rfm failed: %v", err)
	}
	if !strings.Contains(out, "SEGMENT") || !strings.Contains(out, "Leonie") {
		t.Errorf("unexpected rfm output:\n%s", out)
	}

	out, err = run(t, csvArgs("rfm", "--as-of=2021-04-01", "--segments=true")...)
	if err != nil {
		t.Fatalf("rfm --segments failed: %v", err)
	}
	if !strings.Contains(out, "CUSTOMERS") || !strings.Contains(out, "%") {
		t.Errorf("unexpected segment output:\n%s", out)
	}

	_, err = run(t, csvArgs("rfm", "--as-of=April 1st", "--segments=false")...)
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for bad date, got %v", err)
	}
}

func TestCatalog(t *testing.T) {
	out, err := run(t, csvArgs("catalog", "--words=5")...)
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	for _, want := range []string{"MEDIAN", "WORD"} {
		if !strings.Contains(out, want) {
			t.Errorf("catalog missing %q:\n%s", want, out)
		}
	}
}

func TestReportWritesMarkdown(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "summary.md")
	eventsDir := filepath.Join(dir, "events")

	util.SetOutput(io.Discard)
	defer util.SetOutput(nil)
	rootCmd.SetOut(io.Discard)
	rootCmd.SetArgs(csvArgs("report", "--out="+outPath, "--limit=5", "--as-of=2021-04-01",
		"--quiet=false", "--verbose=false", "--strict=false", "--events-dir="+eventsDir))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	md := string(content)
	for _, want := range []string{"# Chinook Insights - Summary Report", "Brazil", "2021-01"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	logs, err := filepath.Glob(filepath.Join(eventsDir, "events-*.jsonl"))
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one event log, got %v (%v)", logs, err)
	}
	events, err := os.ReadFile(logs[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(events), `"event":"report"`) {
		t.Error("event log missing report event")
	}
}

func TestParseAsOf(t *testing.T) {
	got, err := parseAsOf("2021-07-01")
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 2021 || got.Month() != 7 || got.Day() != 1 {
		t.Errorf("parseAsOf = %v", got)
	}
	if got, err := parseAsOf(""); err != nil || !got.IsZero() {
		t.Errorf("empty as-of should be zero, got %v %v", got, err)
	}
}

func TestRFMSegmentsFromConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "chinook.yaml")
	rules := `rfm:
  segments:
    - name: Everyone
`
	if err := os.WriteFile(cfg, []byte(rules), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.WriteFile(cfg, []byte("{}\n"), 0644)
		viper.ReadInConfig()
	})

	out, err := run(t, csvArgs("rfm", "--config="+cfg, "--as-of=2021-04-01", "--segments=true")...)
	if err != nil {
		t.Fatalf("rfm failed: %v", err)
	}
	if !strings.Contains(out, "Everyone") || !strings.Contains(out, "100.0%") {
		t.Errorf("expected every customer in the configured segment:\n%s", out)
	}
}

func TestRFMRejectsInvalidSegments(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "chinook.yaml")
	rules := `rfm:
  segments:
    - name: Broken
      r: {min: 4, max: 2}
`
	if err := os.WriteFile(cfg, []byte(rules), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.WriteFile(cfg, []byte("{}\n"), 0644)
		viper.ReadInConfig()
	})

	_, err := run(t, csvArgs("rfm", "--config="+cfg, "--as-of=2021-04-01", "--segments=true")...)
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
