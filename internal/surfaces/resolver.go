package surfaces

import (
	"errors"
	"fmt"
	"log/slog"

	"chartcap/internal/chart"
	"chartcap/internal/logging"
)

// ErrSurfaceUnavailable marks a timeframe whose surface could not be
// resolved or created. The orchestrator skips the timeframe and continues
// the cycle.
var ErrSurfaceUnavailable = errors.New("surface unavailable")

// Resolver finds or creates surfaces for capture.
type Resolver struct {
	host      chart.Host
	canCreate bool
	logger    *slog.Logger
}

// NewResolver constructs a resolver. canCreate false produces a read-only
// resolver that never opens new surfaces.
func NewResolver(host chart.Host, canCreate bool, logger *slog.Logger) *Resolver {
	return &Resolver{
		host:      host,
		canCreate: canCreate,
		logger:    logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve returns a surface handle showing the pair, preferring an existing
// surface. createdNow reports whether the surface was opened by this call,
// in which case the caller owns it for the remainder of the cycle.
//
// Resolution is deterministic for a given environment snapshot: when several
// open surfaces match, the lowest handle wins.
func (r *Resolver) Resolve(symbol string, timeframe chart.Timeframe) (chart.Handle, bool, error) {
	var best chart.Handle
	found := false
	for _, surface := range r.host.Surfaces() {
		if surface.Symbol != symbol || surface.Timeframe != timeframe {
			continue
		}
		if !found || surface.Handle < best {
			best = surface.Handle
			found = true
		}
	}
	if found {
		return best, false, nil
	}

	if !r.canCreate {
		return 0, false, fmt.Errorf("%w: no open surface for %s %s and surface creation is disabled",
			ErrSurfaceUnavailable, symbol, timeframe)
	}

	handle, err := r.host.Open(symbol, timeframe)
	if err != nil {
		return 0, false, fmt.Errorf("%w: open %s %s: %w", ErrSurfaceUnavailable, symbol, timeframe, err)
	}
	r.logger.Debug("surface created",
		logging.String(logging.FieldSymbol, symbol),
		logging.String(logging.FieldTimeframe, string(timeframe)),
		logging.Int64(logging.FieldSurface, int64(handle)),
	)
	return handle, true, nil
}
