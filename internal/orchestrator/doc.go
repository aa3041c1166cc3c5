// Package orchestrator runs one capture cycle end to end: resolve a surface
// per configured timeframe, mirror annotations onto it, capture an image
// artifact, then publish the completion descriptor and reap the surfaces the
// cycle created. Timeframes are processed independently, a failure in one
// never aborts the rest.
package orchestrator
