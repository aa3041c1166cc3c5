package chart

import (
	"strconv"
	"strings"
)

// LineStyle enumerates the stroke styles the host supports for horizontal
// lines. Values match the host's native style codes.
type LineStyle int

const (
	StyleSolid LineStyle = iota
	StyleDash
	StyleDot
	StyleDashDot
	StyleDashDotDot
)

// DefaultLineColor is used when a source annotation carries no color.
const DefaultLineColor = "#FF0000"

// Annotation is a horizontal price-level marker drawn on a surface.
//
// Two subspecies share this type: user-authored annotations (authoritative,
// never touched by the engine) and mirrored copies created by the
// synchronizer, distinguished solely by the mirror tag in the name.
type Annotation struct {
	Surface    Handle
	Name       string
	Price      float64
	Color      string
	Width      int
	Style      LineStyle
	Label      string
	Background bool
}

// MirrorTag marks synchronizer-created copies. The source surface handle is
// appended after the tag so each (source annotation, source surface) pair
// yields exactly one deterministic mirror name per destination.
const MirrorTag = "_copied_"

// MirrorName derives the deduplication key for a mirrored copy of the named
// annotation from the given source surface.
func MirrorName(sourceName string, source Handle) string {
	return sourceName + MirrorTag + strconv.FormatInt(int64(source), 10)
}

// IsMirror reports whether an annotation name identifies a mirrored copy.
// Mirrors are never treated as sources for further mirroring.
func IsMirror(name string) bool {
	return strings.Contains(name, MirrorTag)
}

// NormalizeColor coerces a color string into the "#RRGGBB" export form,
// falling back to the default line color for malformed values.
func NormalizeColor(value string) string {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "#"))
	if len(trimmed) != 6 {
		return DefaultLineColor
	}
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return DefaultLineColor
		}
	}
	return "#" + strings.ToUpper(trimmed)
}
