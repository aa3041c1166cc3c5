package report_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chartcap/internal/chart"
	"chartcap/internal/config"
	"chartcap/internal/report"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CommonDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.TerminalPath = "/terminals/alpha"
	return &cfg
}

func TestReportWritesDescriptorAndRemovesMarker(t *testing.T) {
	cfg := testConfig(t)
	marker := cfg.MarkerPath()
	if err := os.WriteFile(marker, []byte("capture request"), 0o644); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	reporter := report.NewReporter(cfg, nil)
	timeframes := []chart.Timeframe{chart.TimeframeD1, chart.TimeframeH4, chart.TimeframeM15}
	if err := reporter.Report(3, timeframes); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	data, err := os.ReadFile(cfg.DescriptorPath())
	if err != nil {
		t.Fatalf("descriptor missing: %v", err)
	}
	var descriptor report.Descriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		t.Fatalf("descriptor not valid JSON: %v", err)
	}
	if descriptor.Symbol != cfg.Capture.Symbol {
		t.Fatalf("symbol mismatch: %q", descriptor.Symbol)
	}
	if descriptor.Count != 3 {
		t.Fatalf("count mismatch: %d", descriptor.Count)
	}
	if len(descriptor.Timeframes) != 3 || descriptor.Timeframes[0] != "D1" || descriptor.Timeframes[2] != "M15" {
		t.Fatalf("timeframes mismatch: %v", descriptor.Timeframes)
	}
	if descriptor.Prefix != cfg.FilePrefix() {
		t.Fatalf("prefix mismatch: %q", descriptor.Prefix)
	}
	if descriptor.TerminalPath != "/terminals/alpha" {
		t.Fatalf("terminal path mismatch: %q", descriptor.TerminalPath)
	}
	if _, err := time.Parse(report.TimestampFormat, descriptor.Timestamp); err != nil {
		t.Fatalf("timestamp not in expected layout: %q", descriptor.Timestamp)
	}

	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("request marker survived a published report")
	}
}

func TestReportSucceedsWhenMarkerAlreadyGone(t *testing.T) {
	cfg := testConfig(t)
	reporter := report.NewReporter(cfg, nil)
	if err := reporter.Report(1, []chart.Timeframe{chart.TimeframeM5}); err != nil {
		t.Fatalf("Report failed without a marker: %v", err)
	}
}

func TestReportFailsWhenCommonDirUnwritable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.CommonDir = filepath.Join(cfg.Paths.CommonDir, "missing", "nested")

	reporter := report.NewReporter(cfg, nil)
	err := reporter.Report(2, []chart.Timeframe{chart.TimeframeD1})
	if err == nil {
		t.Fatal("expected write failure")
	}
}

func TestReadDescriptorRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	reporter := report.NewReporter(cfg, nil)
	if err := reporter.Report(5, []chart.Timeframe{chart.TimeframeD1, chart.TimeframeM1}); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	descriptor, err := report.ReadDescriptor(cfg.DescriptorPath())
	if err != nil {
		t.Fatalf("ReadDescriptor failed: %v", err)
	}
	if descriptor.Count != 5 || len(descriptor.Timeframes) != 2 {
		t.Fatalf("round trip mismatch: %+v", descriptor)
	}
}
