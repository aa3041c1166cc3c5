package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CommonDir, err = expandPath(c.Paths.CommonDir); err != nil {
		return fmt.Errorf("paths.common_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.TerminalPath = strings.TrimSpace(c.Paths.TerminalPath)
	if c.Paths.TerminalPath == "" {
		c.Paths.TerminalPath = c.Paths.CommonDir
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.Symbol = strings.TrimSpace(c.Capture.Symbol)
	c.Capture.OutputPrefix = strings.TrimSpace(c.Capture.OutputPrefix)
	c.Capture.RequestMarker = strings.TrimSpace(c.Capture.RequestMarker)
	if c.Capture.RequestMarker == "" {
		c.Capture.RequestMarker = defaultRequestMarker
	}
	if c.Capture.ImageWidth <= 0 {
		c.Capture.ImageWidth = defaultImageWidth
	}
	if c.Capture.ImageHeight <= 0 {
		c.Capture.ImageHeight = defaultImageHeight
	}
	if c.Capture.SettleDelayMs < 0 {
		c.Capture.SettleDelayMs = 0
	}
	if c.Capture.MirrorSettleDelayMs < 0 {
		c.Capture.MirrorSettleDelayMs = 0
	}
	if c.Capture.CloseGraceMs < 0 {
		c.Capture.CloseGraceMs = 0
	}
	trimmed := make([]string, 0, len(c.Capture.Timeframes))
	for _, tf := range c.Capture.Timeframes {
		value := strings.ToUpper(strings.TrimSpace(tf))
		if value == "" {
			continue
		}
		trimmed = append(trimmed, value)
	}
	c.Capture.Timeframes = trimmed
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
