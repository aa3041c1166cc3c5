package watcher_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"chartcap/internal/config"
	"chartcap/internal/history"
	"chartcap/internal/orchestrator"
	"chartcap/internal/watcher"
)

type stubRunner struct {
	mu       sync.Mutex
	requests []orchestrator.Request
	summary  *orchestrator.Summary
	err      error
	delay    time.Duration
}

func (s *stubRunner) RunCycle(ctx context.Context, request orchestrator.Request) (*orchestrator.Summary, error) {
	s.mu.Lock()
	s.requests = append(s.requests, request)
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	summary := s.summary
	if summary == nil {
		summary = &orchestrator.Summary{CycleID: request.ID, SuccessCount: 5, Attempted: 5}
	}
	return summary, s.err
}

func (s *stubRunner) calls() []orchestrator.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orchestrator.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CommonDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	return &cfg
}

func openStore(t *testing.T, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedMarker(t *testing.T, cfg *config.Config, content string) {
	t.Helper()
	if err := os.WriteFile(cfg.MarkerPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
}

func TestPollNowRunsCycleForMarker(t *testing.T) {
	cfg := testConfig(t)
	store := openStore(t, cfg)
	seedMarker(t, cfg, "capture request")
	runner := &stubRunner{}

	w := watcher.New(cfg, runner, store, nil)
	w.PollNow(context.Background())

	calls := runner.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(calls))
	}
	if calls[0].Content != "capture request" {
		t.Fatalf("marker content not forwarded: %q", calls[0].Content)
	}
	if calls[0].ID == "" {
		t.Fatal("cycle id not assigned")
	}

	record, err := store.GetByCycleID(context.Background(), calls[0].ID)
	if err != nil || record == nil {
		t.Fatalf("history record missing: %v", err)
	}
	if record.Status != history.StatusCompleted || record.SuccessCount != 5 {
		t.Fatalf("record not finalized: %+v", record)
	}
	if record.ResultsJSON == "" && record.Attempted != 5 {
		t.Fatalf("summary not persisted: %+v", record)
	}
}

func TestPollNowDoesNothingWithoutMarker(t *testing.T) {
	cfg := testConfig(t)
	runner := &stubRunner{}

	w := watcher.New(cfg, runner, nil, nil)
	w.PollNow(context.Background())

	if calls := runner.calls(); len(calls) != 0 {
		t.Fatalf("cycle ran without a marker: %v", calls)
	}
}

func TestPollNowRecordsFailedCycle(t *testing.T) {
	cfg := testConfig(t)
	store := openStore(t, cfg)
	seedMarker(t, cfg, "capture request")
	runner := &stubRunner{
		summary: &orchestrator.Summary{SuccessCount: 0, Attempted: 5},
		err:     orchestrator.ErrNoCapturesSucceeded,
	}

	w := watcher.New(cfg, runner, store, nil)
	w.PollNow(context.Background())

	calls := runner.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(calls))
	}
	record, err := store.GetByCycleID(context.Background(), calls[0].ID)
	if err != nil || record == nil {
		t.Fatalf("history record missing: %v", err)
	}
	if record.Status != history.StatusFailed || record.ErrorMessage == "" {
		t.Fatalf("failure not recorded: %+v", record)
	}
}

func TestPollNowLeavesUnreadableMarker(t *testing.T) {
	cfg := testConfig(t)
	runner := &stubRunner{}
	// A directory stats fine but cannot be read as a file.
	if err := os.Mkdir(cfg.MarkerPath(), 0o755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}

	w := watcher.New(cfg, runner, nil, nil)
	w.PollNow(context.Background())

	if calls := runner.calls(); len(calls) != 0 {
		t.Fatalf("cycle ran for unreadable marker: %v", calls)
	}
	if _, err := os.Stat(cfg.MarkerPath()); err != nil {
		t.Fatal("unreadable marker must stay for retry")
	}
}

func TestPollNowDefersInReadOnlyMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capture.CreateSurfaces = false
	store := openStore(t, cfg)
	seedMarker(t, cfg, "capture request")
	runner := &stubRunner{}

	w := watcher.New(cfg, runner, store, nil)
	w.PollNow(context.Background())

	if calls := runner.calls(); len(calls) != 0 {
		t.Fatalf("read-only engine ran a cycle: %v", calls)
	}
	if _, err := os.Stat(cfg.MarkerPath()); err != nil {
		t.Fatal("marker must survive read-only deferral")
	}
	cycles, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(cycles) != 0 {
		t.Fatalf("deferral must not create history records: %v", cycles)
	}
}

func TestPollNowIsSingleFlight(t *testing.T) {
	cfg := testConfig(t)
	seedMarker(t, cfg, "capture request")
	runner := &stubRunner{delay: 200 * time.Millisecond}

	w := watcher.New(cfg, runner, nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.PollNow(context.Background())
		}()
	}
	wg.Wait()

	if calls := runner.calls(); len(calls) != 1 {
		t.Fatalf("overlapping polls ran %d cycles", len(calls))
	}
}
