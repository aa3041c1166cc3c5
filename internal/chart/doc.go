// Package chart defines the data model shared across the capture engine:
// surfaces (live chart renderings), horizontal price-level annotations, the
// timeframe set, and the Host bridge through which the charting terminal is
// driven. Everything else in the repository speaks in these types.
package chart
