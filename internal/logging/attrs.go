package logging

import (
	"log/slog"
	"time"
)

// Standardized structured logging keys.
const (
	// FieldComponent names the engine component emitting the record.
	FieldComponent = "component"
	// FieldCycleID carries the capture cycle correlation id.
	FieldCycleID = "cycle_id"
	// FieldSymbol is the instrument symbol being processed.
	FieldSymbol = "symbol"
	// FieldTimeframe is the chart timeframe being processed.
	FieldTimeframe = "timeframe"
	// FieldSurface is the surface handle involved in the operation.
	FieldSurface = "surface"
	// FieldHostCode is the platform error code reported by the charting host.
	FieldHostCode = "host_code"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}
