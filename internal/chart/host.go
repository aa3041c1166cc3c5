package chart

// EventKind classifies annotation change notifications emitted by the host.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventDelete EventKind = "delete"
	EventMove   EventKind = "move"
	EventModify EventKind = "modify"
)

// Event describes one annotation change on an open surface.
type Event struct {
	Kind    EventKind
	Surface Handle
	Name    string
}

// Host is the bridge to the charting terminal. The terminal serializes all
// calls, so implementations are not required to be safe for concurrent use
// beyond what the daemon itself guarantees (one capture cycle at a time plus
// the read-only exporter).
type Host interface {
	// Surfaces enumerates every currently open surface.
	Surfaces() []Surface

	// Open creates a new surface for the pair and returns its handle.
	Open(symbol string, timeframe Timeframe) (Handle, error)

	// Close destroys a surface previously returned by Open or Surfaces.
	Close(handle Handle) error

	// Annotations lists every annotation on the surface, mirrored copies
	// included.
	Annotations(handle Handle) ([]Annotation, error)

	// CreateAnnotation places a horizontal line on the annotation's surface.
	CreateAnnotation(annotation Annotation) error

	// DeleteAnnotation removes the named annotation. Deleting a missing name
	// is not an error.
	DeleteAnnotation(handle Handle, name string) error

	// Redraw forces the surface to rerender. Rendering is asynchronous; the
	// caller is responsible for settle delays before capturing.
	Redraw(handle Handle) error

	// CaptureImage writes a right-anchored image of the surface at the given
	// pixel dimensions to path.
	CaptureImage(handle Handle, width, height int, path string) error

	// Events delivers annotation change notifications. The host serializes
	// delivery; the channel is closed when the host shuts down.
	Events() <-chan Event
}
