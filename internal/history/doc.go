// Package history persists capture-cycle records in SQLite. The daemon
// begins a record when a request is detected and finalizes it when the
// cycle resolves, giving operators a durable audit trail across restarts.
package history
