// Package state shares the service catalog between the background poller
// and the UI.
//
// # Architecture
//
//	Producer (poller):             Consumer (UI):
//	┌──────────────────┐          ┌──────────────────┐
//	│ FetchServices()  │          │                  │
//	│       ↓          │          │                  │
//	│ store.Update()   │─────────→│ store.Snapshot() │
//	│       ↓          │ (RWMutex)│       ↓          │
//	│  repeat...       │          │  service picker  │
//	└──────────────────┘          └──────────────────┘
//
// # Update Semantics
//
//	store.Update(services, nil)   // replace catalog, reset failure count
//	store.Update(nil, err)        // keep catalog, record err, count failure
//
// Update sorts the catalog by display name. Both Update and Snapshot copy
// the service slice, so callers may keep or mutate what they get back.
// After OfflineAfter consecutive failures the snapshot reports IsOffline and
// the header switches to a retrying badge.
//
// The zero Store is ready to use.
//
// Log lines never pass through this package: they belong to the
// logstream.Controller, which runs on the UI goroutine and needs no locking.
package state
