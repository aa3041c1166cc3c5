package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"chartcap/internal/config"
	"chartcap/internal/history"
	"chartcap/internal/logging"
	"chartcap/internal/orchestrator"
)

// CycleRunner runs one capture cycle. Satisfied by orchestrator.Orchestrator.
type CycleRunner interface {
	RunCycle(ctx context.Context, request orchestrator.Request) (*orchestrator.Summary, error)
}

// Watcher detects request markers and dispatches capture cycles.
type Watcher struct {
	cfg    *config.Config
	engine CycleRunner
	store  *history.Store
	logger *slog.Logger

	busy atomic.Bool
}

// New constructs a watcher.
func New(cfg *config.Config, engine CycleRunner, store *history.Store, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:    cfg,
		engine: engine,
		store:  store,
		logger: logging.NewComponentLogger(logger, "watcher"),
	}
}

// Run polls for request markers until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.PollNow(ctx)
		}
	}
}

// PollNow checks for a request marker once and runs a cycle if one is
// present. A poll that arrives while a cycle is in flight returns
// immediately; the marker survives until a cycle succeeds, so nothing is
// lost.
func (w *Watcher) PollNow(ctx context.Context) {
	if !w.busy.CompareAndSwap(false, true) {
		return
	}
	defer w.busy.Store(false)

	markerPath := w.cfg.MarkerPath()
	if _, err := os.Stat(markerPath); err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("request marker stat failed", logging.Error(err))
		}
		return
	}

	if !w.cfg.Capture.CreateSurfaces {
		w.logger.Debug("read-only engine, request left for a capable instance")
		return
	}

	content, err := os.ReadFile(markerPath)
	if err != nil {
		// The marker stays put; the next poll retries the read.
		w.logger.Warn("request marker unreadable", logging.Error(err))
		return
	}

	request := orchestrator.Request{
		ID:      uuid.New().String(),
		Content: string(content),
	}
	w.logger.Info("capture request detected",
		logging.String(logging.FieldCycleID, request.ID),
		logging.String("content", request.Content),
	)

	record := w.begin(ctx, request)
	summary, runErr := w.engine.RunCycle(ctx, request)
	w.finish(ctx, record, summary, runErr)
}

func (w *Watcher) begin(ctx context.Context, request orchestrator.Request) *history.Cycle {
	if w.store == nil {
		return nil
	}
	record, err := w.store.Begin(ctx, request.ID, w.cfg.Capture.Symbol)
	if err != nil {
		w.logger.Warn("history record creation failed", logging.Error(err))
		return nil
	}
	return record
}

func (w *Watcher) finish(ctx context.Context, record *history.Cycle, summary *orchestrator.Summary, runErr error) {
	if runErr != nil && !errors.Is(runErr, orchestrator.ErrNoCapturesSucceeded) {
		w.logger.Error("capture cycle failed", logging.Error(runErr))
	}
	if record == nil {
		return
	}

	if summary != nil {
		record.SuccessCount = summary.SuccessCount
		record.Attempted = summary.Attempted
		if data, err := json.Marshal(summary.Results); err == nil {
			record.ResultsJSON = string(data)
		}
	}
	if runErr != nil {
		record.Status = history.StatusFailed
		record.ErrorMessage = runErr.Error()
	} else {
		record.Status = history.StatusCompleted
	}
	if err := w.store.Update(ctx, record); err != nil {
		w.logger.Warn("history record update failed", logging.Error(err))
	}
}
