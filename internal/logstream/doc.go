// Package logstream turns an unbounded stream of pushed log messages into a
// bounded, ordered window of the most recent lines.
//
// # Components
//
//   - since.go: IsValidSince, ParseSince and the two-mode SinceInput
//   - normalize.go: Normalize converts any payload into a bounded display line
//   - ring.go: Ring, the fixed-capacity FIFO window, and ResolveTail
//   - scheduler.go: Scheduler coalesces bursts into timed commits
//   - policy.go: ShouldReconnect and the shared Backoff curve
//   - controller.go: Controller, the session lifecycle
//   - loop.go: Loop, a minimal owner goroutine for headless use
//
// # Data Flow
//
//	transport goroutine            owner goroutine
//	┌──────────────────┐  Post   ┌──────────────────────────────┐
//	│ Handler.Message  │────────→│ Normalize → Scheduler.Enqueue│
//	└──────────────────┘         │        (timer, 50ms)         │
//	┌──────────────────┐  Post   │ Scheduler.Flush → Ring.Push  │
//	│ clock.AfterFunc  │────────→│        → Commit → OnCommit   │
//	└──────────────────┘         └──────────────────────────────┘
//
// # Concurrency Model
//
// None of the types here are safe for concurrent use. A Controller and
// everything it owns are driven from a single owner goroutine: the Bubble
// Tea update loop in the TUI, or a Loop for the headless tail command.
// Anything that happens on another goroutine (websocket reads, timer
// expiry) is handed over with Options.Post and checked against the session
// epoch before it touches state, so a callback from a stopped session is a
// no-op.
//
// # Lifecycle
//
//	Idle ──Configure──→ Configuring ──Start──→ Active
//	  ↑                      │ ValidationError       │
//	  └────────── Stop ──────┴───────────────────────┘
//
// Stop clears the session, ring and pending queue but never the FormState,
// so the next Start reuses what the user last entered.
package logstream
