// Command chartcap is the CLI for the capture daemon: trigger captures,
// inspect status and history, and manage configuration.
package main
