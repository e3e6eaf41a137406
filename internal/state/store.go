package state

import (
	"sort"
	"sync"
	"time"

	"github.com/five82/swarmtail/internal/swarm"
)

// OfflineAfter is how many refreshes in a row must fail before the catalog
// is reported offline.
const OfflineAfter = 2

// Snapshot is a point-in-time copy of the service catalog.
type Snapshot struct {
	Services    []swarm.Service // sorted by display name
	HasCatalog  bool            // at least one refresh succeeded
	LastUpdated time.Time       // last refresh attempt
	LastSuccess time.Time
	LastError   error
	// ConsecutiveFailures resets on every successful refresh.
	ConsecutiveFailures int
}

// IsOffline reports whether the dashboard has been unreachable for
// OfflineAfter refreshes in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= OfflineAfter
}

// Store holds the catalog shared between the poller and the UI.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records one refresh. A nil err replaces the catalog; otherwise the
// previous catalog is kept and the failure counted.
func (s *Store) Update(services []swarm.Service, err error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = now
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	sorted := cloneServices(services)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DisplayName() < sorted[j].DisplayName()
	})
	s.snapshot.Services = sorted
	s.snapshot.HasCatalog = true
	s.snapshot.LastSuccess = now
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy the caller may modify.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Services = cloneServices(s.snapshot.Services)
	return snap
}

func cloneServices(items []swarm.Service) []swarm.Service {
	if len(items) == 0 {
		return nil
	}
	return append([]swarm.Service(nil), items...)
}
