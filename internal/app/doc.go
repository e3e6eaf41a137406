// Package app is the composition root for swarmtail.
//
// It loads configuration and preferences, builds the zap logger, the
// dashboard client and the shared state.Store, and then hands off to one of
// the front ends:
//
//   - Run: the interactive TUI (package ui)
//   - Tail: a headless stream of one service printed to stdout
//   - Services: the catalog as a table
//   - Serve: the file-backed log relay (package relay)
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read config.toml
//	       ├─────> logging.New()          Log to a file, the TUI owns the terminal
//	       ├─────> swarm.NewClient()      Dashboard HTTP client
//	       ├─────> state.Store{}          Shared catalog snapshot
//	       ├─────> StartPoller()          Background catalog refresh
//	       └─────> ui.Run()               Start TUI (blocks)
//
// # Polling Behavior
//
// The poller fetches ui/logs/services every poll_seconds (default 10s). After
// a failure the wait doubles per consecutive failure, capped at 30s, and the
// store records the error so the header can show the API as offline.
//
// # Headless Tail
//
// Tail drives the same logstream.Controller as the TUI, on a logstream.Loop
// instead of the Bubble Tea program. Each commit prints only the lines that
// arrived since the previous one. Without --follow the command returns when
// the server closes the stream.
package app
