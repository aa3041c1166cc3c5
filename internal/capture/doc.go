// Package capture produces image artifacts from surfaces: force a redraw,
// wait for asynchronous rendering to settle, then invoke the host's native
// capture primitive. Retries are the orchestrator's decision, never this
// package's.
package capture
