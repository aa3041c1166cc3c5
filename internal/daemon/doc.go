// Package daemon coordinates the background services: the request watcher,
// the annotation exporter, and the history store. It enforces
// single-instance execution with a file lock.
package daemon
