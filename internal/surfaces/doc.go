// Package surfaces resolves an (instrument, timeframe) pair to a live
// surface handle, creating one through the host when allowed. The resolver
// only finds or creates; ownership of created surfaces belongs to the
// capture cycle that requested them.
package surfaces
