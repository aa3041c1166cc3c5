package annosync

import (
	"fmt"
	"log/slog"

	"chartcap/internal/chart"
	"chartcap/internal/logging"
)

// Synchronizer mirrors annotations onto destination surfaces.
type Synchronizer struct {
	host   chart.Host
	logger *slog.Logger
}

// NewSynchronizer constructs a synchronizer.
func NewSynchronizer(host chart.Host, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		host:   host,
		logger: logging.NewComponentLogger(logger, "annosync"),
	}
}

// Sync mirrors every user-authored annotation from every other open surface
// of the destination's instrument onto the destination, and returns the
// number of copies created.
//
// The destination's previously-mirrored annotations are purged first, so a
// mirror whose source has since been deleted does not survive the pass.
// User-authored annotations are never mutated or deleted.
func (s *Synchronizer) Sync(destination chart.Surface) (int, error) {
	if err := s.purgeMirrors(destination.Handle); err != nil {
		return 0, err
	}

	copied := 0
	for _, source := range s.host.Surfaces() {
		if source.Handle == destination.Handle || source.Symbol != destination.Symbol {
			continue
		}
		annotations, err := s.host.Annotations(source.Handle)
		if err != nil {
			s.logger.Warn("annotation enumeration failed, source skipped",
				logging.Int64(logging.FieldSurface, int64(source.Handle)),
				logging.Error(err),
			)
			continue
		}
		for _, annotation := range annotations {
			// Mirrors are never sources: no transitive copies.
			if chart.IsMirror(annotation.Name) {
				continue
			}
			if err := s.mirror(destination.Handle, source.Handle, annotation); err != nil {
				s.logger.Warn("mirror failed",
					logging.String("name", annotation.Name),
					logging.Float64("price", annotation.Price),
					logging.Int64(logging.FieldSurface, int64(destination.Handle)),
					logging.Error(err),
				)
				continue
			}
			copied++
		}
	}

	s.logger.Debug("annotations synchronized",
		logging.Int64(logging.FieldSurface, int64(destination.Handle)),
		logging.Int("copied", copied),
	)
	return copied, nil
}

func (s *Synchronizer) purgeMirrors(destination chart.Handle) error {
	annotations, err := s.host.Annotations(destination)
	if err != nil {
		return fmt.Errorf("enumerate destination annotations: %w", err)
	}
	for _, annotation := range annotations {
		if !chart.IsMirror(annotation.Name) {
			continue
		}
		if err := s.host.DeleteAnnotation(destination, annotation.Name); err != nil {
			return fmt.Errorf("purge mirror %q: %w", annotation.Name, err)
		}
	}
	return nil
}

func (s *Synchronizer) mirror(destination, source chart.Handle, annotation chart.Annotation) error {
	name := chart.MirrorName(annotation.Name, source)
	// Delete-then-recreate keeps repeated syncs idempotent and refreshes
	// every property from the source.
	if err := s.host.DeleteAnnotation(destination, name); err != nil {
		return err
	}
	return s.host.CreateAnnotation(chart.Annotation{
		Surface:    destination,
		Name:       name,
		Price:      annotation.Price,
		Color:      annotation.Color,
		Width:      annotation.Width,
		Style:      annotation.Style,
		Label:      annotation.Label,
		Background: true,
	})
}
