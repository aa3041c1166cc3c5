package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"chartcap/internal/chart"
)

//go:embed sample_config.toml
var sampleConfig string

// Well-known file names inside the shared common directory. The external
// collaborator writes the request marker and reads the other two.
const (
	DescriptorFileName = "capture_complete.json"
	ExportFileName     = "horizontal_lines.json"
)

// Paths contains directory configuration.
type Paths struct {
	// CommonDir is the shared storage location used to exchange files with
	// the external collaborator (request marker, completion descriptor,
	// annotation export).
	CommonDir string `toml:"common_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	// TerminalPath is the host environment's base storage path, reported
	// verbatim in the completion descriptor.
	TerminalPath string `toml:"terminal_path"`
}

// Capture contains capture-cycle settings.
type Capture struct {
	Symbol              string   `toml:"symbol"`
	Timeframes          []string `toml:"timeframes"`
	ImageWidth          int      `toml:"image_width"`
	ImageHeight         int      `toml:"image_height"`
	OutputPrefix        string   `toml:"output_prefix"`
	RequestMarker       string   `toml:"request_marker"`
	SettleDelayMs       int      `toml:"settle_delay_ms"`
	MirrorSettleDelayMs int      `toml:"mirror_settle_delay_ms"`
	CloseGraceMs        int      `toml:"close_grace_ms"`
	// CreateSurfaces distinguishes a capable engine from a read-only one
	// that defers every request to a capable instance.
	CreateSurfaces bool `toml:"create_surfaces"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	// PollInterval is the request watcher and exporter tick cadence in
	// seconds.
	PollInterval int `toml:"poll_interval"`
}

// Host contains the connection settings for the charting terminal bridge.
type Host struct {
	// URL is the websocket endpoint the terminal bridge listens on.
	URL string `toml:"url"`
	// TimeoutMs bounds each bridge request.
	TimeoutMs int `toml:"timeout_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for chartcap.
//
// Sections by subsystem:
//   - Paths: shared common dir, capture output dir, log dir
//   - Capture: instrument, timeframe set, image dimensions, settle delays
//   - Workflow: polling cadence
//   - Host: charting terminal bridge endpoint
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Capture  Capture  `toml:"capture"`
	Workflow Workflow `toml:"workflow"`
	Host     Host     `toml:"host"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chartcap/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chartcap.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CommonDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Timeframes returns the configured capture order as parsed timeframes.
// Validation guarantees every entry parses.
func (c *Config) Timeframes() []chart.Timeframe {
	timeframes := make([]chart.Timeframe, 0, len(c.Capture.Timeframes))
	for _, raw := range c.Capture.Timeframes {
		if tf, ok := chart.ParseTimeframe(raw); ok {
			timeframes = append(timeframes, tf)
		}
	}
	return timeframes
}

// FilePrefix is the artifact filename prefix pattern "<prefix><symbol>_"
// reported in the completion descriptor.
func (c *Config) FilePrefix() string {
	return c.Capture.OutputPrefix + c.Capture.Symbol + "_"
}

// MarkerPath is the capture request marker location.
func (c *Config) MarkerPath() string {
	return filepath.Join(c.Paths.CommonDir, c.Capture.RequestMarker)
}

// DescriptorPath is the completion descriptor location.
func (c *Config) DescriptorPath() string {
	return filepath.Join(c.Paths.CommonDir, DescriptorFileName)
}

// ExportPath is the annotation export file location.
func (c *Config) ExportPath() string {
	return filepath.Join(c.Paths.CommonDir, ExportFileName)
}

// SocketPath is the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "chartcap.sock")
}

// ArtifactPath is the capture output file for one timeframe.
func (c *Config) ArtifactPath(timeframe chart.Timeframe) string {
	return filepath.Join(c.Paths.OutputDir, c.FilePrefix()+string(timeframe)+".png")
}

// PollInterval returns the watcher/exporter tick cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollInterval) * time.Second
}

// SettleDelay is the wait inserted after a redraw before capturing.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Capture.SettleDelayMs) * time.Millisecond
}

// MirrorSettleDelay is the extra wait after annotation mirroring, since
// freshly-mirrored lines need a redraw to render.
func (c *Config) MirrorSettleDelay() time.Duration {
	return time.Duration(c.Capture.MirrorSettleDelayMs) * time.Millisecond
}

// CloseGrace is the delay before owned surfaces are closed at cycle end.
func (c *Config) CloseGrace() time.Duration {
	return time.Duration(c.Capture.CloseGraceMs) * time.Millisecond
}

// HostTimeout returns the per-request bridge timeout.
func (c *Config) HostTimeout() time.Duration {
	return time.Duration(c.Host.TimeoutMs) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
