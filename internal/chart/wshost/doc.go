// Package wshost connects to the charting terminal's websocket bridge and
// exposes it as a chart.Host. Requests are JSON envelopes matched to
// responses by id; annotation change notifications arrive as unsolicited
// event envelopes on the same connection.
package wshost
