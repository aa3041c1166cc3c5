package config

import "chartcap/internal/chart"

const (
	defaultCommonDir           = "~/.local/share/chartcap/common"
	defaultOutputDir           = "~/.local/share/chartcap/captures"
	defaultLogDir              = "~/.local/share/chartcap/logs"
	defaultSymbol              = "XAUUSDp"
	defaultOutputPrefix        = "chart_"
	defaultRequestMarker       = "capture_request.txt"
	defaultImageWidth          = 1920
	defaultImageHeight         = 1080
	defaultSettleDelayMs       = 500
	defaultMirrorSettleDelayMs = 700
	defaultCloseGraceMs        = 500
	defaultPollInterval        = 1
	defaultHostURL             = "ws://127.0.0.1:8765/bridge"
	defaultHostTimeoutMs       = 5000
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CommonDir: defaultCommonDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Capture: Capture{
			Symbol:              defaultSymbol,
			Timeframes:          chart.TimeframeNames(chart.DefaultTimeframes),
			ImageWidth:          defaultImageWidth,
			ImageHeight:         defaultImageHeight,
			OutputPrefix:        defaultOutputPrefix,
			RequestMarker:       defaultRequestMarker,
			SettleDelayMs:       defaultSettleDelayMs,
			MirrorSettleDelayMs: defaultMirrorSettleDelayMs,
			CloseGraceMs:        defaultCloseGraceMs,
			CreateSurfaces:      true,
		},
		Workflow: Workflow{
			PollInterval: defaultPollInterval,
		},
		Host: Host{
			URL:       defaultHostURL,
			TimeoutMs: defaultHostTimeoutMs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
