// Package swarm is the client side of the dashboard log API.
//
// # Overview
//
// The package covers the two collaborators a log session needs from the
// server: the catalog of streamable services and the push transport that
// delivers log lines.
//
//   - client.go: HTTP client, base URL handling, FetchServices
//   - endpoint.go: websocket URL builder for a logstream.Session
//   - stream.go: StreamDialer, a gorilla/websocket implementation of
//     logstream.Dialer with reconnect
//   - types.go: Service and lookups
//
// # API Endpoints
//
//   - GET  {base}ui/logs/services      JSON list of {"ID","Name"}
//   - WS   {base}docker/logs/{id}?tail=&since=&follow=&timestamps=&stdout=&stderr=&details=
//
// The websocket scheme mirrors the base URL (http → ws, https → wss) and any
// path on the base URL is kept as a prefix, so a dashboard mounted under
// /swarm/ works unchanged.
//
// # Reconnects
//
// A stream reads until the server closes it or the connection drops, then
// asks its logstream.Handler whether to try again. Waits between attempts
// follow logstream.Backoff starting at one second. Close cancels the stream
// without consulting the handler.
package swarm
