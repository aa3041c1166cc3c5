package chart

import "strings"

// Timeframe identifies a chart period by its terminal name (D1, H4, ...).
type Timeframe string

const (
	TimeframeD1  Timeframe = "D1"
	TimeframeH4  Timeframe = "H4"
	TimeframeM15 Timeframe = "M15"
	TimeframeM5  Timeframe = "M5"
	TimeframeM1  Timeframe = "M1"
)

// DefaultTimeframes is the capture order used when config does not override
// it: longest period first, down to one minute.
var DefaultTimeframes = []Timeframe{TimeframeD1, TimeframeH4, TimeframeM15, TimeframeM5, TimeframeM1}

var timeframeMinutes = map[Timeframe]int{
	TimeframeD1:  1440,
	TimeframeH4:  240,
	TimeframeM15: 15,
	TimeframeM5:  5,
	TimeframeM1:  1,
}

var timeframeLabels = map[Timeframe]string{
	TimeframeD1:  "Daily",
	TimeframeH4:  "4 Hours",
	TimeframeM15: "15 Minutes",
	TimeframeM5:  "5 Minutes",
	TimeframeM1:  "1 Minute",
}

// ParseTimeframe converts a string into a known Timeframe.
func ParseTimeframe(value string) (Timeframe, bool) {
	normalized := Timeframe(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := timeframeMinutes[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// Minutes returns the period length in minutes, or zero for unknown values.
func (t Timeframe) Minutes() int {
	return timeframeMinutes[t]
}

// Label returns a human-readable period name for CLI presentation.
func (t Timeframe) Label() string {
	if label, ok := timeframeLabels[t]; ok {
		return label
	}
	return string(t)
}

// TimeframeNames renders a timeframe list as plain strings.
func TimeframeNames(timeframes []Timeframe) []string {
	names := make([]string, len(timeframes))
	for i, tf := range timeframes {
		names[i] = string(tf)
	}
	return names
}
