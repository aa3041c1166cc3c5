package surfaces_test

import (
	"errors"
	"testing"

	"chartcap/internal/chart"
	"chartcap/internal/chart/charttest"
	"chartcap/internal/surfaces"
)

func TestResolvePrefersExistingSurface(t *testing.T) {
	host := charttest.NewHost()
	existing := host.AddSurface("XAUUSDp", chart.TimeframeH4)

	resolver := surfaces.NewResolver(host, true, nil)
	handle, createdNow, err := resolver.Resolve("XAUUSDp", chart.TimeframeH4)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if createdNow {
		t.Fatal("existing surface reported as created")
	}
	if handle != existing {
		t.Fatalf("expected handle %d, got %d", existing, handle)
	}
}

func TestResolveIsDeterministicAcrossDuplicates(t *testing.T) {
	host := charttest.NewHost()
	first := host.AddSurface("XAUUSDp", chart.TimeframeM5)
	host.AddSurface("XAUUSDp", chart.TimeframeM5)

	resolver := surfaces.NewResolver(host, true, nil)
	for i := 0; i < 3; i++ {
		handle, _, err := resolver.Resolve("XAUUSDp", chart.TimeframeM5)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if handle != first {
			t.Fatalf("resolution not deterministic: got %d, want %d", handle, first)
		}
	}
}

func TestResolveCreatesWhenMissing(t *testing.T) {
	host := charttest.NewHost()
	host.AddSurface("EURUSD", chart.TimeframeM15) // other instrument, must not match

	resolver := surfaces.NewResolver(host, true, nil)
	handle, createdNow, err := resolver.Resolve("XAUUSDp", chart.TimeframeM15)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !createdNow {
		t.Fatal("expected surface to be created")
	}
	found := false
	for _, surface := range host.Surfaces() {
		if surface.Handle == handle && surface.Symbol == "XAUUSDp" && surface.Timeframe == chart.TimeframeM15 {
			found = true
		}
	}
	if !found {
		t.Fatal("created surface not present on host")
	}
}

func TestResolveWrapsHostFailure(t *testing.T) {
	host := charttest.NewHost()
	host.FailOpen[chart.TimeframeM1] = 4106

	resolver := surfaces.NewResolver(host, true, nil)
	_, _, err := resolver.Resolve("XAUUSDp", chart.TimeframeM1)
	if !errors.Is(err, surfaces.ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable, got %v", err)
	}
	if code := chart.HostCode(err); code != 4106 {
		t.Fatalf("host code lost in wrapping: %d", code)
	}
}

func TestReadOnlyResolverNeverCreates(t *testing.T) {
	host := charttest.NewHost()
	resolver := surfaces.NewResolver(host, false, nil)

	_, _, err := resolver.Resolve("XAUUSDp", chart.TimeframeD1)
	if !errors.Is(err, surfaces.ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable, got %v", err)
	}
	if len(host.Surfaces()) != 0 {
		t.Fatal("read-only resolver created a surface")
	}
}
