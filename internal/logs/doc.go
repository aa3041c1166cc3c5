// Package logs reads daemon log files incrementally for the CLI's logs
// command. Reads are cursor-based so a client can resume where its previous
// request left off.
package logs
