// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket. The CLI is the only intended client; request and response types
// live here so both sides share one wire contract.
package ipc
