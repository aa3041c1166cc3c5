package chart

// Handle is the opaque surface identifier assigned by the charting host.
type Handle int64

// Surface describes one live rendering context: an (instrument, timeframe)
// pair the host currently has open.
type Surface struct {
	Handle    Handle
	Symbol    string
	Timeframe Timeframe
}
