// Package watcher polls the shared common directory for request markers and
// hands each detected request to the cycle engine, recording the outcome in
// history. At most one cycle runs at a time; the marker file is the durable
// queue and is only removed once a cycle publishes its descriptor.
package watcher
