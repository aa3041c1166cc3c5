package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chartcap/internal/chart"
	"chartcap/internal/logging"
)

// ErrCaptureFailed marks a failed render or capture for a resolved surface.
var ErrCaptureFailed = errors.New("capture failed")

// Capturer drives the redraw-settle-capture sequence.
type Capturer struct {
	host   chart.Host
	settle time.Duration
	logger *slog.Logger
}

// NewCapturer constructs a capturer with the given render settle delay.
func NewCapturer(host chart.Host, settle time.Duration, logger *slog.Logger) *Capturer {
	return &Capturer{
		host:   host,
		settle: settle,
		logger: logging.NewComponentLogger(logger, "capture"),
	}
}

// Capture writes a right-anchored image of the surface to outputPath. The
// settle delay between redraw and capture lets asynchronous rendering catch
// up; it blocks the calling goroutine, which is the cycle's single thread
// of control.
func (c *Capturer) Capture(surface chart.Surface, width, height int, outputPath string) error {
	if err := c.host.Redraw(surface.Handle); err != nil {
		return fmt.Errorf("%w: redraw %s %s: %w", ErrCaptureFailed, surface.Symbol, surface.Timeframe, err)
	}
	if c.settle > 0 {
		time.Sleep(c.settle)
	}
	if err := c.host.CaptureImage(surface.Handle, width, height, outputPath); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrCaptureFailed, surface.Symbol, surface.Timeframe, err)
	}
	c.logger.Debug("artifact written",
		logging.String(logging.FieldSymbol, surface.Symbol),
		logging.String(logging.FieldTimeframe, string(surface.Timeframe)),
		logging.String("path", outputPath),
	)
	return nil
}
