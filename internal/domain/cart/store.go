package cart

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/stelliesdp/storefront/internal/domain/catalog"
	"github.com/stelliesdp/storefront/internal/kv"
)

// ErrNothingToRestore is returned by RestoreLastOrder when no last-order
// snapshot has been taken yet.
var ErrNothingToRestore = errors.New("nothing to restore")

// Store owns the cart lines. It replaces the global mutable cart array the
// original storefronts mutated from scattered event handlers: every change
// goes through a method here, and every mutation persists the whole cart.
//
// HTTP handlers call into the store concurrently, so a mutex guards the
// line slice even though the logical model is a single shopper.
type Store struct {
	store kv.Store

	mu    sync.Mutex
	lines []Line
}

// NewStore creates a Store backed by the given key-value store and loads
// any previously persisted cart. A corrupt or missing blob degrades to an
// empty cart rather than failing.
func NewStore(store kv.Store) *Store {
	s := &Store{store: store}

	var lines []Line
	if err := s.store.Get(kv.KeyCart, &lines); err == nil {
		s.lines = prune(lines)
	}
	return s
}

// Lines returns a copy of the current cart contents.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// Len returns the number of lines in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// UpsertLine replaces the line matching line's (ProductID, Kind, Flavour)
// or appends a new one. A quantity of zero (or less) removes the line
// instead; a line with quantity zero is equivalent to absence.
func (s *Store) UpsertLine(line Line) error {
	if line.Quantity <= 0 {
		return s.RemoveLine(line.ProductID, line.Kind, line.Flavour)
	}
	if line.UnitPrice.IsNegative() {
		line.UnitPrice = decimal.Zero
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := line.LineKey()
	for i := range s.lines {
		if s.lines[i].LineKey() == key {
			s.lines[i] = line
			return s.persistLocked()
		}
	}
	s.lines = append(s.lines, line)
	return s.persistLocked()
}

// RemoveLine deletes the matching line. Removing an absent line is a no-op.
func (s *Store) RemoveLine(productID string, kind catalog.Kind, flavour string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{ProductID: productID, Kind: kind, Flavour: flavour}
	kept := s.lines[:0]
	removed := false
	for _, l := range s.lines {
		if l.LineKey() == key {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	if !removed {
		return nil
	}
	return s.persistLocked()
}

// Clear empties the cart. The last-order snapshot is untouched.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return s.persistLocked()
}

// SnapshotLastOrder copies the current cart into the last-order slot for
// the repeat-order feature.
func (s *Store) SnapshotLastOrder() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := append([]Line(nil), s.lines...)
	if err := s.store.Set(kv.KeyLastOrder, snapshot); err != nil {
		return errors.Wrap(err, "persist last order")
	}
	return nil
}

// RestoreLastOrder replaces the cart contents with the last-order
// snapshot. It returns ErrNothingToRestore when no snapshot exists.
func (s *Store) RestoreLastOrder() error {
	var snapshot []Line
	if err := s.store.Get(kv.KeyLastOrder, &snapshot); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrNothingToRestore
		}
		return errors.Wrap(err, "load last order")
	}
	if len(snapshot) == 0 {
		return ErrNothingToRestore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = prune(snapshot)
	return s.persistLocked()
}

// persistLocked re-persists the full cart. The caller must hold s.mu.
func (s *Store) persistLocked() error {
	if err := s.store.Set(kv.KeyCart, s.lines); err != nil {
		return errors.Wrap(err, "persist cart")
	}
	return nil
}

// prune drops lines with non-positive quantity.
func prune(lines []Line) []Line {
	kept := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	return kept
}
