package catalog

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
)

// Service holds the current catalog snapshot and refreshes it on demand
// from a Source. A failed refresh keeps the previous snapshot (or the
// empty catalog) so pricing and display keep working; the caller logs the
// failure and the UI shows a "could not load" state.
type Service struct {
	source Source

	mu      sync.RWMutex
	current *Catalog
}

// NewService creates a Service with an empty catalog. Call Refresh to load
// the first snapshot.
func NewService(source Source) *Service {
	return &Service{
		source:  source,
		current: Empty(),
	}
}

// Current returns the latest catalog snapshot. It never returns nil.
func (s *Service) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Refresh fetches a new snapshot from the source and swaps it in. On
// failure the previous snapshot stays current and the error is returned
// for logging.
func (s *Service) Refresh(ctx context.Context) error {
	cat, err := s.source.Fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch catalog")
	}

	s.mu.Lock()
	s.current = cat
	s.mu.Unlock()
	return nil
}
