package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"chartcap/internal/chart"
	"chartcap/internal/config"
	"chartcap/internal/logging"
)

// TimestampFormat is the snapshot timestamp layout expected by the external
// collaborator.
const TimestampFormat = "2006.01.02 15:04:05"

// Line is one exported price level.
type Line struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Color string  `json:"color"`
}

// Snapshot is the export file payload.
type Snapshot struct {
	Symbol    string `json:"symbol"`
	Timestamp string `json:"timestamp"`
	Lines     []Line `json:"lines"`
}

// Exporter collects and publishes annotation snapshots.
type Exporter struct {
	cfg    *config.Config
	host   chart.Host
	logger *slog.Logger
	now    func() time.Time

	lastCount int
}

// NewExporter constructs an exporter.
func NewExporter(cfg *config.Config, host chart.Host, logger *slog.Logger) *Exporter {
	return &Exporter{
		cfg:       cfg,
		host:      host,
		logger:    logging.NewComponentLogger(logger, "export"),
		now:       time.Now,
		lastCount: -1,
	}
}

// Run exports on every poll tick and on every annotation change event until
// the context is canceled or the host's event stream closes.
func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.PollInterval())
	defer ticker.Stop()

	events := e.host.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case _, ok := <-events:
			if !ok {
				return nil
			}
		}
		if _, err := e.ExportOnce(); err != nil {
			e.logger.Warn("annotation export failed", logging.Error(err))
		}
	}
}

// ExportOnce collects the current annotation set and writes the snapshot,
// returning the number of exported lines.
func (e *Exporter) ExportOnce() (int, error) {
	lines := e.collect()
	snapshot := Snapshot{
		Symbol:    e.cfg.Capture.Symbol,
		Timestamp: e.now().Format(TimestampFormat),
		Lines:     lines,
	}
	if err := writeAtomic(e.cfg.ExportPath(), snapshot); err != nil {
		return 0, err
	}
	if len(lines) != e.lastCount {
		e.logger.Info("annotation export updated",
			logging.String(logging.FieldSymbol, snapshot.Symbol),
			logging.Int("lines", len(lines)),
		)
		e.lastCount = len(lines)
	}
	return len(lines), nil
}

// collect gathers user-authored lines across every surface of the configured
// instrument. Prices collapse to two decimals; a level already seen on an
// earlier surface is not repeated.
func (e *Exporter) collect() []Line {
	seenPrices := make(map[float64]struct{})
	seenNames := make(map[string]struct{})
	lines := make([]Line, 0, 8)

	for _, surface := range e.host.Surfaces() {
		if surface.Symbol != e.cfg.Capture.Symbol {
			continue
		}
		annotations, err := e.host.Annotations(surface.Handle)
		if err != nil {
			e.logger.Warn("annotation enumeration failed, surface skipped",
				logging.Int64(logging.FieldSurface, int64(surface.Handle)),
				logging.Error(err),
			)
			continue
		}
		sort.Slice(annotations, func(i, j int) bool { return annotations[i].Name < annotations[j].Name })
		for _, annotation := range annotations {
			if chart.IsMirror(annotation.Name) {
				continue
			}
			price := math.Round(annotation.Price*100) / 100
			if _, dup := seenPrices[price]; dup {
				continue
			}
			seenPrices[price] = struct{}{}

			name := annotation.Name
			if _, taken := seenNames[name]; taken {
				name = fmt.Sprintf("%s_%d", annotation.Name, surface.Handle)
			}
			seenNames[name] = struct{}{}

			lines = append(lines, Line{
				Name:  name,
				Price: price,
				Color: chart.NormalizeColor(annotation.Color),
			})
		}
	}
	return lines
}

func writeAtomic(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
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
