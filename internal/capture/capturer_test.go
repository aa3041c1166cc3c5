package capture_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chartcap/internal/capture"
	"chartcap/internal/chart"
	"chartcap/internal/chart/charttest"
)

func surfaceFor(host *charttest.Host, handle chart.Handle) chart.Surface {
	for _, surface := range host.Surfaces() {
		if surface.Handle == handle {
			return surface
		}
	}
	return chart.Surface{}
}

func TestCaptureRedrawsThenWritesArtifact(t *testing.T) {
	host := charttest.NewHost()
	handle := host.AddSurface("XAUUSDp", chart.TimeframeH4)
	path := filepath.Join(t.TempDir(), "chart_XAUUSDp_H4.png")

	capturer := capture.NewCapturer(host, 0, nil)
	if err := capturer.Capture(surfaceFor(host, handle), 1920, 1080, path); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if redraws := host.Redraws(); len(redraws) != 1 || redraws[0] != handle {
		t.Fatalf("expected one redraw of %d, got %v", handle, redraws)
	}
	captures := host.Captures()
	if len(captures) != 1 {
		t.Fatalf("expected one capture, got %d", len(captures))
	}
	got := captures[0]
	if got.Handle != handle || got.Width != 1920 || got.Height != 1080 || got.Path != path {
		t.Fatalf("unexpected capture request: %+v", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
}

func TestCaptureWrapsHostFailure(t *testing.T) {
	host := charttest.NewHost()
	handle := host.AddSurface("XAUUSDp", chart.TimeframeM5)
	host.FailCapture = map[chart.Timeframe]int{chart.TimeframeM5: 4004}

	capturer := capture.NewCapturer(host, 0, nil)
	err := capturer.Capture(surfaceFor(host, handle), 1920, 1080, filepath.Join(t.TempDir(), "out.png"))
	if err == nil {
		t.Fatal("expected capture failure")
	}
	if !errors.Is(err, capture.ErrCaptureFailed) {
		t.Fatalf("error not marked as capture failure: %v", err)
	}
	if code := chart.HostCode(err); code != 4004 {
		t.Fatalf("host code lost in wrapping: got %d", code)
	}
}

func TestCaptureDoesNotRetry(t *testing.T) {
	host := charttest.NewHost()
	handle := host.AddSurface("XAUUSDp", chart.TimeframeM1)
	host.FailCapture = map[chart.Timeframe]int{chart.TimeframeM1: 4004}

	capturer := capture.NewCapturer(host, 0, nil)
	_ = capturer.Capture(surfaceFor(host, handle), 800, 600, filepath.Join(t.TempDir(), "out.png"))

	if captures := host.Captures(); len(captures) != 0 {
		t.Fatalf("failed capture must not be retried, recorded %v", captures)
	}
}
