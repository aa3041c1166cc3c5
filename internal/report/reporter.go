package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"chartcap/internal/chart"
	"chartcap/internal/config"
	"chartcap/internal/logging"
)

// TimestampFormat is the descriptor timestamp layout expected by the
// external collaborator.
const TimestampFormat = "2006.01.02 15:04:05"

// ErrReportWrite marks a failure to persist the completion descriptor.
var ErrReportWrite = errors.New("descriptor write failed")

// Descriptor is the completion record written to the shared common
// directory after a cycle with at least one successful capture.
type Descriptor struct {
	Symbol       string   `json:"symbol"`
	Count        int      `json:"count"`
	Timeframes   []string `json:"timeframes"`
	Timestamp    string   `json:"timestamp"`
	Prefix       string   `json:"prefix"`
	TerminalPath string   `json:"terminal_path"`
}

// Reporter publishes completion descriptors.
type Reporter struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewReporter constructs a reporter.
func NewReporter(cfg *config.Config, logger *slog.Logger) *Reporter {
	return &Reporter{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "report"),
		now:    time.Now,
	}
}

// Report writes the completion descriptor for a cycle that produced count
// successful captures across the given timeframes, then deletes the request
// marker. The descriptor write is atomic; a marker deletion failure is
// logged but does not fail the cycle, the next pass will re-detect it.
func (r *Reporter) Report(count int, timeframes []chart.Timeframe) error {
	names := make([]string, 0, len(timeframes))
	for _, timeframe := range timeframes {
		names = append(names, string(timeframe))
	}
	descriptor := Descriptor{
		Symbol:       r.cfg.Capture.Symbol,
		Count:        count,
		Timeframes:   names,
		Timestamp:    r.now().Format(TimestampFormat),
		Prefix:       r.cfg.FilePrefix(),
		TerminalPath: r.cfg.Paths.TerminalPath,
	}
	if err := writeAtomic(r.cfg.DescriptorPath(), descriptor); err != nil {
		return fmt.Errorf("%w: %w", ErrReportWrite, err)
	}
	r.logger.Info("completion descriptor published",
		logging.String(logging.FieldSymbol, descriptor.Symbol),
		logging.Int("count", count),
	)

	if err := os.Remove(r.cfg.MarkerPath()); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("request marker removal failed", logging.Error(err))
	}
	return nil
}

// ReadDescriptor loads a previously published descriptor, used by status
// inspection tooling.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var descriptor Descriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("parse descriptor %s: %w", path, err)
	}
	return &descriptor, nil
}

func writeAtomic(path string, descriptor Descriptor) error {
	data, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
