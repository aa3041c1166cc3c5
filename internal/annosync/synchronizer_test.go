package annosync_test

import (
	"testing"

	"chartcap/internal/annosync"
	"chartcap/internal/chart"
	"chartcap/internal/chart/charttest"
)

func destination(host *charttest.Host, handle chart.Handle) chart.Surface {
	for _, surface := range host.Surfaces() {
		if surface.Handle == handle {
			return surface
		}
	}
	return chart.Surface{}
}

func mirrorsOn(t *testing.T, host *charttest.Host, handle chart.Handle) map[string]chart.Annotation {
	t.Helper()
	annotations, err := host.Annotations(handle)
	if err != nil {
		t.Fatalf("Annotations failed: %v", err)
	}
	mirrors := make(map[string]chart.Annotation)
	for _, annotation := range annotations {
		if chart.IsMirror(annotation.Name) {
			mirrors[annotation.Name] = annotation
		}
	}
	return mirrors
}

func TestSyncCopiesUserAnnotationsFromOtherSurfaces(t *testing.T) {
	host := charttest.NewHost()
	src := host.AddSurface("XAUUSDp", chart.TimeframeD1)
	dest := host.AddSurface("XAUUSDp", chart.TimeframeM15)
	other := host.AddSurface("EURUSD", chart.TimeframeD1)

	host.AddAnnotation(chart.Annotation{Surface: src, Name: "Resistance", Price: 2411.50, Color: "#00FF00", Width: 2, Style: chart.StyleDash, Label: "weekly"})
	host.AddAnnotation(chart.Annotation{Surface: other, Name: "Unrelated", Price: 1.09})

	sync := annosync.NewSynchronizer(host, nil)
	copied, err := sync.Sync(destination(host, dest))
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if copied != 1 {
		t.Fatalf("expected 1 copy, got %d", copied)
	}

	mirrors := mirrorsOn(t, host, dest)
	name := chart.MirrorName("Resistance", src)
	mirror, ok := mirrors[name]
	if !ok {
		t.Fatalf("mirror %q missing, have %v", name, mirrors)
	}
	if mirror.Price != 2411.50 || mirror.Color != "#00FF00" || mirror.Width != 2 || mirror.Style != chart.StyleDash || mirror.Label != "weekly" {
		t.Fatalf("mirror properties not copied verbatim: %+v", mirror)
	}
	if !mirror.Background {
		t.Fatal("mirror must be background-layer")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	host := charttest.NewHost()
	src := host.AddSurface("XAUUSDp", chart.TimeframeD1)
	dest := host.AddSurface("XAUUSDp", chart.TimeframeM5)
	host.AddAnnotation(chart.Annotation{Surface: src, Name: "Support", Price: 2380})
	host.AddAnnotation(chart.Annotation{Surface: src, Name: "Resistance", Price: 2440})

	sync := annosync.NewSynchronizer(host, nil)
	if _, err := sync.Sync(destination(host, dest)); err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}
	first := mirrorsOn(t, host, dest)

	copied, err := sync.Sync(destination(host, dest))
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if copied != 2 {
		t.Fatalf("expected 2 copies on repeat, got %d", copied)
	}
	second := mirrorsOn(t, host, dest)
	if len(second) != len(first) {
		t.Fatalf("mirror set changed across idempotent syncs: %d vs %d", len(first), len(second))
	}
	for name, annotation := range first {
		if second[name] != annotation {
			t.Fatalf("mirror %q changed across idempotent syncs", name)
		}
	}
}

func TestSyncNeverMirrorsTransitively(t *testing.T) {
	host := charttest.NewHost()
	a := host.AddSurface("XAUUSDp", chart.TimeframeD1)
	b := host.AddSurface("XAUUSDp", chart.TimeframeH4)
	c := host.AddSurface("XAUUSDp", chart.TimeframeM15)
	host.AddAnnotation(chart.Annotation{Surface: a, Name: "Level", Price: 2400})

	sync := annosync.NewSynchronizer(host, nil)
	// Repeated cycles across several destinations must keep the mirror set
	// bounded by the user-authored annotation count.
	for cycle := 0; cycle < 3; cycle++ {
		for _, handle := range []chart.Handle{b, c} {
			if _, err := sync.Sync(destination(host, handle)); err != nil {
				t.Fatalf("Sync failed: %v", err)
			}
		}
	}

	for _, handle := range []chart.Handle{b, c} {
		mirrors := mirrorsOn(t, host, handle)
		if len(mirrors) != 1 {
			t.Fatalf("mirror set grew beyond sources on %d: %v", handle, mirrors)
		}
	}
	if mirrors := mirrorsOn(t, host, a); len(mirrors) != 0 {
		t.Fatalf("source surface gained mirrors: %v", mirrors)
	}
}

func TestSyncPurgesStaleMirrors(t *testing.T) {
	host := charttest.NewHost()
	src := host.AddSurface("XAUUSDp", chart.TimeframeD1)
	dest := host.AddSurface("XAUUSDp", chart.TimeframeM1)
	host.AddAnnotation(chart.Annotation{Surface: src, Name: "Gone", Price: 2300})

	sync := annosync.NewSynchronizer(host, nil)
	if _, err := sync.Sync(destination(host, dest)); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(mirrorsOn(t, host, dest)) != 1 {
		t.Fatal("expected one mirror before source deletion")
	}

	host.RemoveAnnotation(src, "Gone")
	copied, err := sync.Sync(destination(host, dest))
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if copied != 0 {
		t.Fatalf("expected no copies, got %d", copied)
	}
	if mirrors := mirrorsOn(t, host, dest); len(mirrors) != 0 {
		t.Fatalf("stale mirror leaked: %v", mirrors)
	}
}

func TestSyncRefreshesMirrorUnderSameName(t *testing.T) {
	// Scenario: the destination already holds a mirror from a prior cycle
	// and the source has since moved to a new price.
	host := charttest.NewHost()
	src := host.AddSurface("XAUUSDp", chart.TimeframeD1)
	dest := host.AddSurface("XAUUSDp", chart.TimeframeM5)

	name := chart.MirrorName("X", src)
	host.AddAnnotation(chart.Annotation{Surface: dest, Name: name, Price: 2400})
	host.AddAnnotation(chart.Annotation{Surface: src, Name: "X", Price: 2455.25})

	sync := annosync.NewSynchronizer(host, nil)
	if _, err := sync.Sync(destination(host, dest)); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	mirrors := mirrorsOn(t, host, dest)
	if len(mirrors) != 1 {
		t.Fatalf("expected exactly one mirror, got %v", mirrors)
	}
	if mirrors[name].Price != 2455.25 {
		t.Fatalf("mirror not refreshed: %+v", mirrors[name])
	}
}

func TestSyncLeavesUserAnnotationsAlone(t *testing.T) {
	host := charttest.NewHost()
	src := host.AddSurface("XAUUSDp", chart.TimeframeD1)
	dest := host.AddSurface("XAUUSDp", chart.TimeframeM15)
	host.AddAnnotation(chart.Annotation{Surface: src, Name: "Src", Price: 2410})
	host.AddAnnotation(chart.Annotation{Surface: dest, Name: "Local", Price: 2390})

	sync := annosync.NewSynchronizer(host, nil)
	if _, err := sync.Sync(destination(host, dest)); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	annotations, err := host.Annotations(dest)
	if err != nil {
		t.Fatalf("Annotations failed: %v", err)
	}
	foundLocal := false
	for _, annotation := range annotations {
		if annotation.Name == "Local" && annotation.Price == 2390 {
			foundLocal = true
		}
	}
	if !foundLocal {
		t.Fatal("user-authored annotation on destination was disturbed")
	}
}
