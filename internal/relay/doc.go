// Package relay serves local log files over the dashboard's log API so
// swarmtail can be pointed at hosts that have no Swarm dashboard.
//
// Routes:
//
//	GET /ui/logs/services    JSON catalog [{"ID": ..., "Name": ...}] sorted by name
//	GET /docker/logs/{id}    websocket stream of one source
//	GET /health              liveness
//	GET /metrics             Prometheus metrics
//
// The stream endpoint honours tail, since, follow, timestamps, stdout,
// stderr and details. Each source is a single file tagged as stdout or
// stderr; since filters lines by their leading RFC 3339 timestamp when they
// have one. Without follow the relay sends the last tail lines and closes
// normally. With follow it keeps reading the file and pings the client
// every 54s.
//
// A follower goroutine feeds a 64-line buffer drained by a single writer.
// If the buffer stays full for 50ms the client is too slow and the stream
// is closed with code 1013 so the client backs off and reconnects.
package relay
