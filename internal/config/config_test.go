package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chartcap/internal/chart"
	"chartcap/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config file, resolved %s", resolved)
	}
	if cfg.Capture.Symbol != "XAUUSDp" {
		t.Fatalf("unexpected default symbol: %q", cfg.Capture.Symbol)
	}
	if cfg.Workflow.PollInterval != 1 {
		t.Fatalf("unexpected default poll interval: %d", cfg.Workflow.PollInterval)
	}
	if got := cfg.Timeframes(); len(got) != 5 || got[0] != chart.TimeframeD1 || got[4] != chart.TimeframeM1 {
		t.Fatalf("unexpected default timeframes: %v", got)
	}
	if !cfg.Capture.CreateSurfaces {
		t.Fatal("expected capable engine by default")
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`common_dir = "` + filepath.Join(base, "common") + `"`,
		`output_dir = "` + filepath.Join(base, "out") + `"`,
		`log_dir = "` + filepath.Join(base, "logs") + `"`,
		"",
		"[capture]",
		`symbol = "EURUSD"`,
		`timeframes = ["h4", "m5"]`,
		"settle_delay_ms = 0",
		"mirror_settle_delay_ms = 0",
		"create_surfaces = false",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Capture.Symbol != "EURUSD" {
		t.Fatalf("unexpected symbol: %q", cfg.Capture.Symbol)
	}
	got := cfg.Timeframes()
	if len(got) != 2 || got[0] != chart.TimeframeH4 || got[1] != chart.TimeframeM5 {
		t.Fatalf("unexpected timeframes: %v", got)
	}
	if cfg.Capture.CreateSurfaces {
		t.Fatal("expected read-only engine")
	}
	if cfg.FilePrefix() != "chart_EURUSD_" {
		t.Fatalf("unexpected file prefix: %q", cfg.FilePrefix())
	}
	if cfg.Paths.TerminalPath != cfg.Paths.CommonDir {
		t.Fatalf("terminal path should default to common dir, got %q", cfg.Paths.TerminalPath)
	}
}

func TestLoadRejectsUnknownTimeframe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[capture]\ntimeframes = [\"H2\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown timeframe to fail validation")
	}
}

func TestLoadRejectsDuplicateTimeframes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[capture]\ntimeframes = [\"M5\", \"m5\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected duplicate timeframe to fail validation")
	}
}

func TestLoadRejectsNonWebsocketHostURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[host]\nurl = \"http://127.0.0.1:8765\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected non-websocket host url to fail validation")
	}
}

func TestWellKnownPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CommonDir = "/tmp/common"
	cfg.Paths.OutputDir = "/tmp/out"
	cfg.Paths.LogDir = "/tmp/logs"

	if cfg.MarkerPath() != "/tmp/common/capture_request.txt" {
		t.Fatalf("unexpected marker path: %q", cfg.MarkerPath())
	}
	if cfg.DescriptorPath() != "/tmp/common/capture_complete.json" {
		t.Fatalf("unexpected descriptor path: %q", cfg.DescriptorPath())
	}
	if cfg.ExportPath() != "/tmp/common/horizontal_lines.json" {
		t.Fatalf("unexpected export path: %q", cfg.ExportPath())
	}
	if cfg.ArtifactPath(chart.TimeframeM15) != "/tmp/out/chart_XAUUSDp_M15.png" {
		t.Fatalf("unexpected artifact path: %q", cfg.ArtifactPath(chart.TimeframeM15))
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[capture]") {
		t.Fatal("sample config missing capture section")
	}
}
