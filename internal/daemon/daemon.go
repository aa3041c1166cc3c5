package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"chartcap/internal/chart"
	"chartcap/internal/config"
	"chartcap/internal/export"
	"chartcap/internal/history"
	"chartcap/internal/logging"
	"chartcap/internal/orchestrator"
	"chartcap/internal/watcher"
)

// Daemon owns the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	host     chart.Host
	store    *history.Store
	watcher  *watcher.Watcher
	exporter *export.Exporter
	logger   *slog.Logger
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	wg      sync.WaitGroup

	// mu guards ctx and cancel; Stop and TriggerCapture race via the IPC
	// handlers.
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Symbol        string
	HistoryDBPath string
	LockFilePath  string
	Health        history.HealthSummary
	LastCycle     *history.Cycle
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, host chart.Host, store *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || host == nil || store == nil {
		return nil, errors.New("daemon requires config, host, and history store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	engine := orchestrator.New(cfg, host, logger)
	lockPath := filepath.Join(cfg.Paths.LogDir, "chartcapd.lock")
	return &Daemon{
		cfg:      cfg,
		host:     host,
		store:    store,
		watcher:  watcher.New(cfg, engine, store, logger),
		exporter: export.NewExporter(cfg, host, logger),
		logger:   logging.NewComponentLogger(logger, "daemon"),
		logPath:  filepath.Join(cfg.Paths.LogDir, "chartcap.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the watcher and exporter.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another chartcap daemon instance is already running")
	}

	if reset, err := d.store.ResetRunning(ctx); err != nil {
		d.logger.Warn("stale history reset failed", logging.Error(err))
	} else if reset > 0 {
		d.logger.Info("stale running cycles marked failed", logging.Int64("count", reset))
	}

	d.mu.Lock()
	d.ctx, d.cancel = context.WithCancel(ctx)
	runCtx := d.ctx
	d.mu.Unlock()

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("watcher stopped", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.exporter.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("exporter stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("chartcap daemon started",
		logging.String(logging.FieldSymbol, d.cfg.Capture.Symbol),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop halts background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	d.mu.Unlock()

	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("chartcap daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// TriggerCapture writes a request marker, queueing a capture cycle exactly
// as the external collaborator would.
func (d *Daemon) TriggerCapture(ctx context.Context) error {
	content := fmt.Sprintf("manual trigger %s\n", time.Now().Format(time.RFC3339))
	if err := os.WriteFile(d.cfg.MarkerPath(), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write request marker: %w", err)
	}
	d.logger.Info("capture requested", logging.String("marker", d.cfg.MarkerPath()))

	// A nil run context means the daemon is stopped or stopping; the marker
	// stays queued for the next running instance's poll loop.
	d.mu.Lock()
	runCtx := d.ctx
	d.mu.Unlock()
	if runCtx != nil {
		go d.watcher.PollNow(runCtx)
	}
	return nil
}

// HistoryList returns the newest cycle records first.
func (d *Daemon) HistoryList(ctx context.Context, limit int) ([]*history.Cycle, error) {
	return d.store.Recent(ctx, limit)
}

// HistoryClear removes every cycle record.
func (d *Daemon) HistoryClear(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// HistoryClearCompleted removes completed cycle records.
func (d *Daemon) HistoryClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Symbol:        d.cfg.Capture.Symbol,
		HistoryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
	health, err := d.store.Health(ctx)
	if err != nil {
		d.logger.Warn("history health query failed", logging.Error(err))
	} else {
		status.Health = health
	}
	recent, err := d.store.Recent(ctx, 1)
	if err == nil && len(recent) > 0 {
		status.LastCycle = recent[0]
	}
	return status
}
