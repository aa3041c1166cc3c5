package config

import (
	"errors"
	"fmt"
	"strings"

	"chartcap/internal/chart"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateHost(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.Symbol == "" {
		return errors.New("capture.symbol must be set")
	}
	if len(c.Capture.Timeframes) == 0 {
		return errors.New("capture.timeframes must include at least one timeframe")
	}
	seen := make(map[string]struct{}, len(c.Capture.Timeframes))
	for _, raw := range c.Capture.Timeframes {
		if _, ok := chart.ParseTimeframe(raw); !ok {
			return fmt.Errorf("capture.timeframes: unknown timeframe %q", raw)
		}
		if _, dup := seen[raw]; dup {
			return fmt.Errorf("capture.timeframes: duplicate timeframe %q", raw)
		}
		seen[raw] = struct{}{}
	}
	if c.Capture.ImageWidth <= 0 || c.Capture.ImageHeight <= 0 {
		return errors.New("capture.image_width and capture.image_height must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	return nil
}

func (c *Config) validateHost() error {
	if c.Host.URL == "" {
		return errors.New("host.url must be set")
	}
	if !strings.HasPrefix(c.Host.URL, "ws://") && !strings.HasPrefix(c.Host.URL, "wss://") {
		return fmt.Errorf("host.url must be a ws:// or wss:// endpoint, got %q", c.Host.URL)
	}
	if c.Host.TimeoutMs <= 0 {
		return errors.New("host.timeout_ms must be positive")
	}
	return nil
}
