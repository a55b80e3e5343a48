// Package memory implements an in-process RecordStore. Rows live for the
// lifetime of the Store value; it backs tests and the "memory" backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mesh-intelligence/stockparts/internal/resolver"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

var _ types.RecordStore = (*Store)(nil)

// Store is a mutex-guarded, append-only slice of rows.
type Store struct {
	mu     sync.RWMutex
	policy types.Policy
	rows   []types.PartEntry
	nextID int64
	closed bool
	now    func() time.Time
}

// New returns an empty Store applying policy.
func New(policy types.Policy) *Store {
	return &Store{policy: policy, nextID: 1, now: time.Now}
}

// Policy implements types.RecordStore.
func (s *Store) Policy() types.Policy { return s.policy }

// EnsureSchema is a no-op beyond checking the store is open.
func (s *Store) EnsureSchema(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	return nil
}

// CountForKey counts rows whose SKU equals sku exactly.
func (s *Store) CountForKey(_ context.Context, sku string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, types.ErrStoreClosed
	}
	return s.countLocked(sku), nil
}

func (s *Store) countLocked(sku string) int {
	n := 0
	for _, r := range s.rows {
		if r.SKU == sku {
			n++
		}
	}
	return n
}

// Insert appends entry. The discriminator is computed while holding the
// write lock, so concurrent inserts never share a sequence number.
func (s *Store) Insert(_ context.Context, entry types.PartEntry) (types.PartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.PartEntry{}, types.ErrStoreClosed
	}

	var d resolver.Decision
	switch s.policy {
	case types.PolicyDuplicateFlag:
		skus := make([]string, len(s.rows))
		for i, r := range s.rows {
			skus[i] = r.SKU
		}
		d = resolver.Decision{Policy: s.policy, Duplicate: resolver.IsDuplicate(entry.SKU, skus)}
	default:
		d = resolver.Decision{Policy: types.PolicySequence, Sequence: resolver.NextSequence(s.countLocked(entry.SKU))}
	}

	row := d.Apply(entry)
	row.ID = s.nextID
	row.CreatedAt = s.now().UTC()
	s.nextID++
	s.rows = append(s.rows, row)
	return row, nil
}

// ListAll returns a copy of every row, ordered like the SQL backends:
// sequence policy by SKU then nth_entry descending, duplicate-flag policy
// newest first.
func (s *Store) ListAll(_ context.Context) ([]types.PartEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	out := make([]types.PartEntry, len(s.rows))
	copy(out, s.rows)
	SortForListing(s.policy, out)
	return out, nil
}

// Close marks the store closed. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
