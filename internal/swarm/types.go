package swarm

import "github.com/five82/swarmtail/internal/logstream"

// Service mirrors one entry of the ui/logs/services catalog.
type Service struct {
	ID   string `json:"ID"`
	Name string `json:"Name"`
}

// Source converts the catalog entry into a stream source.
func (s Service) Source() logstream.Source {
	return logstream.Source{ID: s.ID, Name: s.Name}
}

// DisplayName prefers the service name and falls back to its ID.
func (s Service) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// FindService looks up a service by ID or name.
func FindService(services []Service, key string) (Service, bool) {
	for _, s := range services {
		if s.ID == key {
			return s, true
		}
	}
	for _, s := range services {
		if s.Name == key {
			return s, true
		}
	}
	return Service{}, false
}
