package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"chartcap/internal/annosync"
	"chartcap/internal/capture"
	"chartcap/internal/chart"
	"chartcap/internal/config"
	"chartcap/internal/logging"
	"chartcap/internal/report"
	"chartcap/internal/surfaces"
)

// ErrNoCapturesSucceeded indicates a cycle in which every timeframe failed.
// No descriptor is published and the request marker is left in place so a
// later cycle can retry.
var ErrNoCapturesSucceeded = errors.New("no captures succeeded")

// ErrDeferred indicates a read-only engine declined the request, leaving the
// marker for a capable instance.
var ErrDeferred = errors.New("request deferred")

// Request is one detected capture request.
type Request struct {
	// ID identifies the cycle in logs and history.
	ID string
	// Content is the raw marker file content, recorded for diagnostics.
	Content string
}

// Result records the outcome for a single timeframe.
type Result struct {
	Timeframe    chart.Timeframe `json:"timeframe"`
	Success      bool            `json:"success"`
	ArtifactPath string          `json:"artifact_path,omitempty"`
	Mirrored     int             `json:"mirrored"`
	Error        string          `json:"error,omitempty"`
}

// Summary aggregates a cycle's per-timeframe results.
type Summary struct {
	CycleID      string   `json:"cycle_id"`
	Symbol       string   `json:"symbol"`
	SuccessCount int      `json:"success_count"`
	Attempted    int      `json:"attempted"`
	Results      []Result `json:"results"`
}

// Orchestrator coordinates the per-cycle pipeline.
type Orchestrator struct {
	cfg      *config.Config
	host     chart.Host
	resolver *surfaces.Resolver
	sync     *annosync.Synchronizer
	capturer *capture.Capturer
	reporter *report.Reporter
	logger   *slog.Logger

	sleep func(time.Duration)
}

// New constructs an orchestrator and its pipeline components from config.
func New(cfg *config.Config, host chart.Host, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		host:     host,
		resolver: surfaces.NewResolver(host, cfg.Capture.CreateSurfaces, logger),
		sync:     annosync.NewSynchronizer(host, logger),
		capturer: capture.NewCapturer(host, cfg.SettleDelay(), logger),
		reporter: report.NewReporter(cfg, logger),
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		sleep:    time.Sleep,
	}
}

// RunCycle processes one capture request. The returned summary is always
// populated; the error reports cycle-level outcomes (deferral, total
// failure, descriptor write failure).
//
// A started cycle runs every timeframe to completion or skip. Cancellation
// gates polling between cycles in the watcher, not work inside a cycle, so
// a partially-captured run still publishes its descriptor.
//
// Surfaces opened by this cycle are closed on the way out, whatever the
// outcome. Pre-existing surfaces are never closed.
func (o *Orchestrator) RunCycle(_ context.Context, request Request) (*Summary, error) {
	started := time.Now()
	summary := &Summary{CycleID: request.ID, Symbol: o.cfg.Capture.Symbol}
	logger := o.logger.With(logging.String(logging.FieldCycleID, request.ID))

	if !o.cfg.Capture.CreateSurfaces {
		logger.Info("read-only engine, request left for a capable instance")
		return summary, ErrDeferred
	}

	logger.Info("capture cycle started",
		logging.String(logging.FieldSymbol, summary.Symbol),
		logging.Int("timeframes", len(o.cfg.Timeframes())),
	)

	// Ownership is scoped to this cycle: only handles opened here are
	// eligible for reaping.
	owned := make(map[chart.Handle]struct{})
	defer o.reap(logger, owned)

	for _, timeframe := range o.cfg.Timeframes() {
		summary.Attempted++
		result := o.runTimeframe(logger, timeframe, owned)
		if result.Success {
			summary.SuccessCount++
		}
		summary.Results = append(summary.Results, result)
	}

	if summary.SuccessCount == 0 {
		logger.Error("every timeframe failed, marker left in place")
		return summary, ErrNoCapturesSucceeded
	}

	captured := make([]chart.Timeframe, 0, summary.SuccessCount)
	for _, result := range summary.Results {
		if result.Success {
			captured = append(captured, result.Timeframe)
		}
	}
	if err := o.reporter.Report(summary.SuccessCount, captured); err != nil {
		return summary, err
	}

	logger.Info("capture cycle finished",
		logging.Int("succeeded", summary.SuccessCount),
		logging.Int("attempted", summary.Attempted),
		logging.Duration("cycle_duration", time.Since(started)),
	)
	return summary, nil
}

func (o *Orchestrator) runTimeframe(logger *slog.Logger, timeframe chart.Timeframe, owned map[chart.Handle]struct{}) Result {
	result := Result{Timeframe: timeframe}
	tfLogger := logger.With(logging.String(logging.FieldTimeframe, string(timeframe)))

	handle, created, err := o.resolver.Resolve(o.cfg.Capture.Symbol, timeframe)
	if err != nil {
		tfLogger.Warn("surface unavailable, timeframe skipped", failureAttrs(err)...)
		result.Error = err.Error()
		return result
	}
	if created {
		owned[handle] = struct{}{}
	}
	surface := chart.Surface{Handle: handle, Symbol: o.cfg.Capture.Symbol, Timeframe: timeframe}

	copied, err := o.sync.Sync(surface)
	if err != nil {
		// The capture still has value without fresh mirrors.
		tfLogger.Warn("annotation sync failed, capturing anyway", logging.Error(err))
	}
	result.Mirrored = copied
	if copied > 0 {
		o.sleep(o.cfg.MirrorSettleDelay())
	}

	path := o.cfg.ArtifactPath(timeframe)
	if err := o.capturer.Capture(surface, o.cfg.Capture.ImageWidth, o.cfg.Capture.ImageHeight, path); err != nil {
		tfLogger.Warn("capture failed", failureAttrs(err)...)
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.ArtifactPath = path
	return result
}

// failureAttrs attaches the platform error code to a failure log when the
// error carries one.
func failureAttrs(err error) []any {
	attrs := []any{logging.Error(err)}
	if code := chart.HostCode(err); code != 0 {
		attrs = append(attrs, logging.Int(logging.FieldHostCode, code))
	}
	return attrs
}

// reap closes the surfaces this cycle created, after a grace period that
// lets the host finish any pending artifact writes.
func (o *Orchestrator) reap(logger *slog.Logger, owned map[chart.Handle]struct{}) {
	if len(owned) == 0 {
		return
	}
	o.sleep(o.cfg.CloseGrace())

	handles := make([]chart.Handle, 0, len(owned))
	for handle := range owned {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, handle := range handles {
		if err := o.host.Close(handle); err != nil {
			logger.Warn("surface close failed",
				logging.Int64(logging.FieldSurface, int64(handle)),
				logging.Error(err),
			)
		}
	}
	logger.Debug("cycle surfaces reaped", logging.Int("count", len(handles)))
}
