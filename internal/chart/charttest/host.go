// Package charttest provides an in-memory chart.Host used by engine tests.
// It behaves deterministically: handles are assigned sequentially, surface
// enumeration is ordered by handle, and failures are injected per timeframe.
package charttest

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"chartcap/internal/chart"
)

// Capture records one CaptureImage invocation.
type Capture struct {
	Handle chart.Handle
	Width  int
	Height int
	Path   string
}

// Host is an in-memory chart.Host.
type Host struct {
	mu sync.Mutex

	nextHandle  chart.Handle
	surfaces    map[chart.Handle]chart.Surface
	annotations map[chart.Handle]map[string]chart.Annotation

	// FailOpen maps timeframes whose Open call should fail to the host
	// error code to report. FailCapture does the same for CaptureImage.
	FailOpen    map[chart.Timeframe]int
	FailCapture map[chart.Timeframe]int

	captures []Capture
	redraws  []chart.Handle
	closed   []chart.Handle

	events chan chart.Event
}

// NewHost constructs an empty host.
func NewHost() *Host {
	return &Host{
		nextHandle:  1,
		surfaces:    make(map[chart.Handle]chart.Surface),
		annotations: make(map[chart.Handle]map[string]chart.Annotation),
		FailOpen:    make(map[chart.Timeframe]int),
		FailCapture: make(map[chart.Timeframe]int),
		events:      make(chan chart.Event, 64),
	}
}

// AddSurface registers a pre-existing surface and returns its handle.
func (h *Host) AddSurface(symbol string, timeframe chart.Timeframe) chart.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addSurfaceLocked(symbol, timeframe)
}

func (h *Host) addSurfaceLocked(symbol string, timeframe chart.Timeframe) chart.Handle {
	handle := h.nextHandle
	h.nextHandle++
	h.surfaces[handle] = chart.Surface{Handle: handle, Symbol: symbol, Timeframe: timeframe}
	h.annotations[handle] = make(map[string]chart.Annotation)
	return handle
}

// AddAnnotation places an annotation directly, bypassing failure injection.
func (h *Host) AddAnnotation(annotation chart.Annotation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.annotations[annotation.Surface]; ok {
		set[annotation.Name] = annotation
	}
}

// RemoveAnnotation deletes an annotation directly.
func (h *Host) RemoveAnnotation(handle chart.Handle, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.annotations[handle]; ok {
		delete(set, name)
	}
}

func (h *Host) Surfaces() []chart.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	surfaces := make([]chart.Surface, 0, len(h.surfaces))
	for _, surface := range h.surfaces {
		surfaces = append(surfaces, surface)
	}
	sort.Slice(surfaces, func(i, j int) bool { return surfaces[i].Handle < surfaces[j].Handle })
	return surfaces
}

func (h *Host) Open(symbol string, timeframe chart.Timeframe) (chart.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code, ok := h.FailOpen[timeframe]; ok {
		return 0, &chart.HostError{Op: fmt.Sprintf("open %s %s", symbol, timeframe), Code: code}
	}
	return h.addSurfaceLocked(symbol, timeframe), nil
}

func (h *Host) Close(handle chart.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.surfaces[handle]; !ok {
		return &chart.HostError{Op: fmt.Sprintf("close %d", handle), Code: 4103}
	}
	delete(h.surfaces, handle)
	delete(h.annotations, handle)
	h.closed = append(h.closed, handle)
	return nil
}

func (h *Host) Annotations(handle chart.Handle) ([]chart.Annotation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.annotations[handle]
	if !ok {
		return nil, &chart.HostError{Op: fmt.Sprintf("annotations %d", handle), Code: 4103}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	annotations := make([]chart.Annotation, 0, len(names))
	for _, name := range names {
		annotations = append(annotations, set[name])
	}
	return annotations, nil
}

func (h *Host) CreateAnnotation(annotation chart.Annotation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.annotations[annotation.Surface]
	if !ok {
		return &chart.HostError{Op: fmt.Sprintf("create %q", annotation.Name), Code: 4103}
	}
	if _, exists := set[annotation.Name]; exists {
		return &chart.HostError{Op: fmt.Sprintf("create %q", annotation.Name), Code: 4200}
	}
	set[annotation.Name] = annotation
	return nil
}

func (h *Host) DeleteAnnotation(handle chart.Handle, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.annotations[handle]; ok {
		delete(set, name)
	}
	return nil
}

func (h *Host) Redraw(handle chart.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.surfaces[handle]; !ok {
		return &chart.HostError{Op: fmt.Sprintf("redraw %d", handle), Code: 4103}
	}
	h.redraws = append(h.redraws, handle)
	return nil
}

func (h *Host) CaptureImage(handle chart.Handle, width, height int, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	surface, ok := h.surfaces[handle]
	if !ok {
		return &chart.HostError{Op: fmt.Sprintf("capture %d", handle), Code: 4103}
	}
	if code, ok := h.FailCapture[surface.Timeframe]; ok {
		return &chart.HostError{Op: fmt.Sprintf("capture %d", handle), Code: code}
	}
	if err := os.WriteFile(path, []byte("image"), 0o644); err != nil {
		return err
	}
	h.captures = append(h.captures, Capture{Handle: handle, Width: width, Height: height, Path: path})
	return nil
}

func (h *Host) Events() <-chan chart.Event {
	return h.events
}

// Emit delivers an annotation change event to listeners.
func (h *Host) Emit(event chart.Event) {
	h.events <- event
}

// CloseEvents closes the event channel, signaling host shutdown.
func (h *Host) CloseEvents() {
	close(h.events)
}

// Captures returns the recorded CaptureImage calls.
func (h *Host) Captures() []Capture {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Capture, len(h.captures))
	copy(out, h.captures)
	return out
}

// Closed returns the handles closed so far, in order.
func (h *Host) Closed() []chart.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]chart.Handle, len(h.closed))
	copy(out, h.closed)
	return out
}

// Redraws returns the handles redrawn so far, in order.
func (h *Host) Redraws() []chart.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]chart.Handle, len(h.redraws))
	copy(out, h.redraws)
	return out
}
