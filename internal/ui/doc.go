// Package ui provides the swarmtail terminal interface, built on Bubble Tea.
//
// # Views
//
// Two views share a header (logo, dashboard endpoint, catalog and stream
// state) and a command bar:
//
//   - Form: service picker, tail, since (relative amount and unit, or an
//     absolute timestamp) and the follow, timestamps, stdout, stderr and
//     details toggles. Enter starts a session.
//   - Logs: the controller's committed window with line numbers, search,
//     auto-scroll, tail resizing, copy to clipboard and save to file.
//
// # Stream Ownership
//
// The Bubble Tea event loop owns the logstream.Controller. Transport and
// flush timer callbacks run on other goroutines; they reach the controller
// by posting a runMsg through Program.Send, and Update runs them in order.
// After each runMsg the logs viewport is re-rendered if the controller's
// Version moved.
//
// The stream counts as visible only while the logs view is shown. Editing
// the form keeps the session running, but a follow stream that drops while
// hidden is not reconnected. Stopping discards the session and its lines;
// the form keeps its values.
//
// # Catalog
//
// A background poller fills a state.Store; the UI reads a snapshot on every
// tick and resolves the selected service against it.
//
// # Themes
//
// Nightfox (default), Kanagawa and Slate. T cycles them and the choice is
// saved to the preferences file along with the last submitted form.
package ui
